// Package controlclient is a thin Go client over the control package's
// JSON-over-HTTP surface, used by cmd/discpipe so the CLI never talks to
// the job store directly. It decodes responses into the same queue
// package types the server encodes, mirroring the shape of the teacher's
// unix-socket ipc.Client.
package controlclient
