package rcopy

import (
	"context"
	"net"
)

type Options struct {
	ChunkSize     int           // Transfer unit for file content
	MaxTransfers  int           // Concurrent transfer workers, <= 0 means MAX_TRANSFERS
	Fingerprinter Fingerprinter // Must match the server's
	Exclusion     *Exclusion
	Callback      Callback
	// Dial opens every connection to the server, the diff connection first
	Dial func(ctx context.Context, network, address string) (net.Conn, error)
}

func (o *Options) withDefaults() Options {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = CHUNK_SIZE
	}
	if opts.MaxTransfers <= 0 {
		opts.MaxTransfers = MAX_TRANSFERS
	}
	if opts.Fingerprinter == nil {
		opts.Fingerprinter = XOR{}
	}
	if opts.Callback == nil {
		opts.Callback = SimpleCallback{}
	}
	if opts.Dial == nil {
		var d net.Dialer
		opts.Dial = d.DialContext
	}
	return opts
}
