package report

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"example.com/fitgate/internal/profile"
	"example.com/fitgate/internal/semantic"
)

func buildMonitoringBuffer(t *testing.T) []byte {
	t.Helper()
	var body bytes.Buffer
	def := func(local uint8, global uint16, fields ...[3]byte) {
		body.WriteByte(0x40 | local)
		body.Write([]byte{0x00, 0x00})
		var g [2]byte
		binary.LittleEndian.PutUint16(g[:], global)
		body.Write(g[:])
		body.WriteByte(uint8(len(fields)))
		for _, f := range fields {
			body.Write(f[:])
		}
	}
	data := func(local uint8, payload ...byte) {
		body.WriteByte(local)
		body.Write(payload)
	}
	u32 := func(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }

	def(0, profile.MesgFileID, [3]byte{0, 1, 0x00})
	data(0, 15)
	def(1, profile.MesgMonitoring,
		[3]byte{253, 4, 0x86},
		[3]byte{3, 4, 0x86},
	)
	data(1, append(u32(999_993_600+3600), u32(4200)...)...)

	hdr := make([]byte, 14)
	hdr[0] = 14
	hdr[1] = 0x20
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(body.Len()))
	copy(hdr[8:12], ".FIT")
	return append(hdr, body.Bytes()...)
}

func TestSummarize(t *testing.T) {
	buf := buildMonitoringBuffer(t)
	sum, err := Summarize(profile.Builtin(), "wellness.fit", buf)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if sum.Classification != semantic.ClassMonitoring {
		t.Fatalf("classification = %v, want monitoring", sum.Classification)
	}
	if sum.Messages != 2 {
		t.Fatalf("messages = %d, want 2", sum.Messages)
	}
	if sum.Activity != nil {
		t.Fatalf("monitoring summary grew an activity")
	}
	if len(sum.MonitoringDays) != 1 || sum.MonitoringDays[0].Steps != 4200 {
		t.Fatalf("monitoring days = %+v", sum.MonitoringDays)
	}
	if len(sum.Fingerprint) != 64 {
		t.Fatalf("fingerprint = %q, want hex sha256", sum.Fingerprint)
	}
	if sum.SizeBytes != int64(len(buf)) {
		t.Fatalf("size = %d, want %d", sum.SizeBytes, len(buf))
	}
}

func TestSummaryJSONRoundTrip(t *testing.T) {
	sum, err := Summarize(profile.Builtin(), "wellness.fit", buildMonitoringBuffer(t))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	out := filepath.Join(t.TempDir(), "summary.json")
	if err := SaveSummaryJSON(sum, out); err != nil {
		t.Fatalf("SaveSummaryJSON: %v", err)
	}
	loaded, err := LoadSummaryJSON(out)
	if err != nil {
		t.Fatalf("LoadSummaryJSON: %v", err)
	}
	if loaded.Fingerprint != sum.Fingerprint {
		t.Fatalf("fingerprint mismatch after round trip")
	}
	if len(loaded.MonitoringDays) != 1 || loaded.MonitoringDays[0].Date != sum.MonitoringDays[0].Date {
		t.Fatalf("monitoring days lost in round trip: %+v", loaded.MonitoringDays)
	}
}

func TestFingerprintToQR(t *testing.T) {
	if _, err := FingerprintToQR("", 128); err == nil {
		t.Fatalf("empty fingerprint accepted")
	}
	if _, err := FingerprintToQR("zz--!!", 128); err == nil {
		t.Fatalf("fingerprint with no hex digits accepted")
	}
	png, err := FingerprintToQR("deadbeef01234567", 0)
	if err != nil {
		t.Fatalf("FingerprintToQR: %v", err)
	}
	if len(png) == 0 || !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Fatalf("output is not a PNG (%d bytes)", len(png))
	}
}

func TestSaveSummaryPDF(t *testing.T) {
	sum, err := Summarize(profile.Builtin(), "wellness.fit", buildMonitoringBuffer(t))
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	out := filepath.Join(t.TempDir(), "summary.pdf")
	if err := SaveSummaryPDF(sum, out); err != nil {
		t.Fatalf("SaveSummaryPDF: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("output is not a PDF")
	}
}
