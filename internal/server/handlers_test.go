package server

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"example.com/fitgate/internal/profile"
	"example.com/fitgate/internal/report"
	"example.com/fitgate/internal/semantic"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(Options{StorageDir: t.TempDir()})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	ts := httptest.NewServer(NewRouter(srv))
	t.Cleanup(ts.Close)
	return srv, ts
}

func buildActivityBuffer(t *testing.T) []byte {
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
	data(0, 4)
	def(1, profile.MesgSession,
		[3]byte{253, 4, 0x86},
		[3]byte{2, 4, 0x86},
		[3]byte{5, 1, 0x00},
		[3]byte{9, 4, 0x86},
	)
	data(1, append(append(append(u32(1000), u32(0)...), 2), u32(250_000)...)...)
	def(2, profile.MesgRecord,
		[3]byte{253, 4, 0x86},
		[3]byte{3, 1, 0x02},
	)
	data(2, append(u32(10), 130)...)
	data(2, append(u32(11), 131)...)
	data(2, append(u32(12), 132)...)

	hdr := make([]byte, 14)
	hdr[0] = 14
	hdr[1] = 0x20
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(body.Len()))
	copy(hdr[8:12], ".FIT")
	return append(hdr, body.Bytes()...)
}

func writeActivityFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ride.fit")
	if err := os.WriteFile(path, buildActivityBuffer(t), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func TestHandleDecode(t *testing.T) {
	_, ts := newTestServer(t)
	input := writeActivityFile(t)

	resp := postJSON(t, ts.URL+"/decode", map[string]any{
		"inputs": []string{input},
		"pdf":    true,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, msg)
	}
	var decoded struct {
		Summaries []report.FileSummary `json:"summaries"`
		Artifacts []ArtifactRef        `json:"artifacts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(decoded.Summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(decoded.Summaries))
	}
	sum := decoded.Summaries[0]
	if sum.Classification != semantic.ClassActivity {
		t.Fatalf("classification = %v, want activity", sum.Classification)
	}
	if sum.Activity == nil || sum.Activity.Sport != "cycling" {
		t.Fatalf("activity = %+v", sum.Activity)
	}
	if len(sum.Activity.Records) != 3 {
		t.Fatalf("records = %d, want 3", len(sum.Activity.Records))
	}
	// One JSON summary plus one PDF.
	if len(decoded.Artifacts) != 2 {
		t.Fatalf("artifacts = %d, want 2", len(decoded.Artifacts))
	}

	// Every artifact is downloadable by id.
	for _, ref := range decoded.Artifacts {
		dl, err := http.Get(ts.URL + "/artifacts/" + ref.ID)
		if err != nil {
			t.Fatalf("GET artifact: %v", err)
		}
		data, _ := io.ReadAll(dl.Body)
		dl.Body.Close()
		if dl.StatusCode != http.StatusOK || len(data) == 0 {
			t.Fatalf("artifact %s: status %d, %d bytes", ref.Name, dl.StatusCode, len(data))
		}
	}
}

func TestHandleDecodeErrors(t *testing.T) {
	_, ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/decode", map[string]any{"inputs": []string{}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("empty inputs status = %d, want 400", resp.StatusCode)
	}

	bad := filepath.Join(t.TempDir(), "bad.fit")
	if err := os.WriteFile(bad, []byte("not a fit file at all"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	resp = postJSON(t, ts.URL+"/decode", map[string]any{"inputs": []string{bad}})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("bad input status = %d, want 422", resp.StatusCode)
	}
}

func TestHandleRecordsStream(t *testing.T) {
	_, ts := newTestServer(t)
	input := writeActivityFile(t)

	resp := postJSON(t, ts.URL+"/records", map[string]any{"input": input})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/x-ndjson" {
		t.Fatalf("content type = %q", ct)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	// Three records plus the trailing summary line.
	if len(lines) != 4 {
		t.Fatalf("lines = %d, want 4", len(lines))
	}
	var tail struct {
		Type    string `json:"type"`
		Records int    `json:"records"`
	}
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &tail); err != nil {
		t.Fatalf("decode summary line: %v", err)
	}
	if tail.Type != "summary" || tail.Records != 3 {
		t.Fatalf("summary line = %+v", tail)
	}
}

func TestHandleUploadThenDecode(t *testing.T) {
	_, ts := newTestServer(t)

	var form bytes.Buffer
	mw := multipart.NewWriter(&form)
	fw, err := mw.CreateFormFile("file", "ride.fit")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(buildActivityBuffer(t)); err != nil {
		t.Fatalf("write form: %v", err)
	}
	mw.Close()

	resp, err := http.Post(ts.URL+"/upload", mw.FormDataContentType(), &form)
	if err != nil {
		t.Fatalf("POST upload: %v", err)
	}
	var uploaded struct {
		Files []ArtifactRef `json:"files"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("decode upload response: %v", err)
	}
	resp.Body.Close()
	if len(uploaded.Files) != 1 {
		t.Fatalf("uploaded files = %d, want 1", len(uploaded.Files))
	}

	// The artifact id is accepted as a decode input.
	resp = postJSON(t, ts.URL+"/decode", map[string]any{
		"inputs": []string{uploaded.Files[0].ID},
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("decode status = %d: %s", resp.StatusCode, msg)
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" {
		t.Fatalf("status = %q", health.Status)
	}
}
