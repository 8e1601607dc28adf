// Package pumpverify provides a pump configuration verification pipeline
// that parses vendor log exports, checks serial numbers against a master
// configuration list, and writes a report folder per pump.
//
// Quick start:
//
//	app, err := pumpverify.New(
//	    pumpverify.WithMasterList("Master_Config_List.xlsx"),
//	    pumpverify.WithOutputDir("Results"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res := app.Process(ctx, "Logs/EDW10200304_export.csv")
//	fmt.Println(res.OK, res.Message)
//
// The App instance is safe for concurrent use. Create once, reuse across
// files. Watch() runs the same pipeline for every log file dropped into
// the watch folder.
package pumpverify
