// Package async provides the single control thread that the load and save
// state machines run on.
//
// A Loop executes posted functions one at a time on the goroutine that
// called Run. Blocking work is started with Go, which runs it on its own
// goroutine and posts the completion back to the loop, so state owned by
// the loop is only ever touched from one goroutine:
//
//	loop := async.NewLoop()
//	async.Go(loop, func() (int, error) {
//		return r.Read(chunk)
//	}, func(n int, err error) {
//		// runs on the loop
//		loop.Quit()
//	})
//	err := loop.Run()
package async
