package rtc

import (
	"errors"
	"sync"
	"testing"

	"github.com/pion/rtcp"
	"github.com/pion/rtp"

	"github.com/dkeye/SantaCall/internal/core"
)

type countingWriter struct {
	mu  sync.Mutex
	n   int
	err error
}

func (w *countingWriter) WriteRTP(*rtp.Packet) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.n++
	return nil
}

func (w *countingWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.n
}

func TestLocalTrack_MutedDropsPackets(t *testing.T) {
	w := &countingWriter{}
	tr := newLocalTrack(w, core.TrackKindAudio, "mic")

	_ = tr.WriteRTP(&rtp.Packet{})
	tr.SetEnabled(false)
	if tr.Enabled() || tr.State() != TrackStateMuted {
		t.Fatalf("state = %v", tr.State())
	}
	if err := tr.WriteRTP(&rtp.Packet{}); err != nil {
		t.Fatalf("muted write: %v", err)
	}
	tr.SetEnabled(true)
	_ = tr.WriteRTP(&rtp.Packet{})

	if w.count() != 2 {
		t.Fatalf("written = %d, want 2", w.count())
	}
}

func TestLocalTrack_StopIsFinal(t *testing.T) {
	w := &countingWriter{}
	tr := newLocalTrack(w, core.TrackKindAudio, "mic")

	tr.Stop()
	tr.SetEnabled(true)
	tr.SetEnabled(false)

	if tr.State() != TrackStateDelete {
		t.Fatalf("state = %v, want delete", tr.State())
	}
	if err := tr.WriteRTP(&rtp.Packet{}); !errors.Is(err, ErrTrackStopped) {
		t.Fatalf("err = %v", err)
	}
	if w.count() != 0 {
		t.Fatalf("stopped track wrote packets")
	}
}

func TestNewLocalTrack_Kinds(t *testing.T) {
	audio, err := NewLocalTrack(core.TrackKindAudio, "a", "s")
	if err != nil {
		t.Fatalf("audio: %v", err)
	}
	if audio.rtp.Codec().MimeType != "audio/opus" || audio.Kind() != core.TrackKindAudio {
		t.Fatalf("audio codec = %s", audio.rtp.Codec().MimeType)
	}
	video, err := NewLocalTrack(core.TrackKindVideo, "v", "s")
	if err != nil {
		t.Fatalf("video: %v", err)
	}
	if video.rtp.Codec().MimeType != "video/VP8" {
		t.Fatalf("video codec = %s", video.rtp.Codec().MimeType)
	}
	if !audio.Enabled() {
		t.Fatalf("new track should start enabled")
	}
}

func TestReceiverLoss(t *testing.T) {
	pkts := []rtcp.Packet{
		&rtcp.PictureLossIndication{MediaSSRC: 1},
		&rtcp.ReceiverReport{Reports: []rtcp.ReceptionReport{{SSRC: 1, FractionLost: 12}, {SSRC: 2, FractionLost: 40}}},
		&rtcp.ReceiverReport{Reports: []rtcp.ReceptionReport{{SSRC: 3, FractionLost: 3}}},
	}
	worst, n := receiverLoss(pkts)
	if worst != 40 || n != 3 {
		t.Fatalf("worst=%d n=%d", worst, n)
	}
	if _, n := receiverLoss(nil); n != 0 {
		t.Fatalf("empty input reported %d", n)
	}
}
