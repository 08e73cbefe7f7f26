// Package hostjs installs the bridge export table into a goja runtime.
//
// The runtime is driven by a goja_nodejs event loop. That loop is the host
// context: every export runs on it, and every asynchronous completion is
// routed back onto it through Dispatcher, so scripts never observe two
// callbacks at once.
//
//	rt := hostjs.New(hostjs.WithStdout(os.Stdout))
//	defer rt.Close()
//	err := rt.Exec(ctx, "main.js", `
//		const hb = require("hostbridge");
//		hb.scheduleTask((err, v) => console.log(v)); // 17
//	`)
package hostjs
