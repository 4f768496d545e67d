// Package client drives one legacy (draft-hixie-75/76) websocket connection
// from Connect to Close.
//
// Each Client runs a single goroutine that opens the socket, waits for
// connect readiness, writes the opening handshake, and then feeds every
// readable chunk to the framing layer. Failed attempts are retried a bounded
// number of times with a fixed pause in between. Lifecycle notifications are
// delivered to an events.Sink from that goroutine only.
//
// Example usage:
//
//	cfg := core.DefaultConfig("ws://example.com:8080/chat").WithDraft(core.Draft76)
//	c, err := client.New(cfg, events.SinkFuncs{
//		Message: func(text string) { fmt.Println(text) },
//	})
//	if err != nil {
//		return err
//	}
//	if err := c.Connect(); err != nil {
//		return err
//	}
//	defer c.Close()
package client
