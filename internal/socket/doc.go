// Package socket implements the raw TCP transport for Pinwarden.
//
// Each accepted connection gets its own session goroutine with no cap on
// concurrency. A session is a loop of exchanges: one read delivers one JSON
// command, the processor's response is written straight back, and the
// session keeps going until the client hangs up or the server closes. There
// is no framing layer on top of TCP; sender and receiver rely on one command
// per transmission, which holds for the small payloads this protocol
// carries.
//
// A failure inside a session (bad payload, write error) never reaches other
// sessions; the worst a client can do to the service is occupy a goroutine.
//
// # Usage
//
//	srv := socket.NewServer(cfg.Socket, processor, log)
//	if err := srv.Start(ctx); err != nil {
//	    return err // bind failure is fatal at startup
//	}
//	defer srv.Close()
package socket
