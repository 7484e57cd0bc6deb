package pipeline

import (
	"context"

	"discpipe/internal/services/handbrake"
	"discpipe/internal/services/makemkv"
)

// makemkvRipper adapts *makemkv.Client to the Ripper interface. The two
// progress event shapes are structurally identical; this adapter exists
// only so pipeline stays free of a direct makemkv import in its public
// interface.
type makemkvRipper struct {
	client *makemkv.Client
}

// NewMakeMKVRipper wraps client as a Ripper.
func NewMakeMKVRipper(client *makemkv.Client) Ripper {
	return makemkvRipper{client: client}
}

func (r makemkvRipper) Rip(ctx context.Context, device string, titleIndex int, outputDir string, progress func(RipProgress)) (string, error) {
	return r.client.Rip(ctx, device, titleIndex, outputDir, func(update makemkv.ProgressUpdate) {
		if progress != nil {
			progress(RipProgress{Stage: update.Stage, Percent: update.Percent, Message: update.Message})
		}
	})
}

// handbrakeTranscoder adapts *handbrake.Client to the Transcoder interface.
type handbrakeTranscoder struct {
	client *handbrake.Client
}

// NewHandbrakeTranscoder wraps client as a Transcoder.
func NewHandbrakeTranscoder(client *handbrake.Client) Transcoder {
	return handbrakeTranscoder{client: client}
}

func (t handbrakeTranscoder) Encode(ctx context.Context, inputFile, outputFile string, progress func(EncodeProgress)) error {
	return t.client.Encode(ctx, inputFile, outputFile, func(update handbrake.ProgressUpdate) {
		if progress != nil {
			progress(EncodeProgress{Percent: update.Percent, FPS: update.FPS, ETA: update.ETA})
		}
	})
}
