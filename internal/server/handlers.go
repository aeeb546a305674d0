package server

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"example.com/fitgate/internal/common"
	"example.com/fitgate/internal/fit"
	"example.com/fitgate/internal/profile"
	"example.com/fitgate/internal/report"
	"example.com/fitgate/internal/semantic"
)

// Server coordinates HTTP handlers and manages temporary artifacts produced
// by decode requests.
type Server struct {
	artifacts      *ArtifactStore
	workDir        string
	uploadsDir     string
	store          *profile.Store
	metrics        *common.Metrics
	maxUploadBytes int64
}

// Artifact represents a file generated or stored by the daemon.
type Artifact struct {
	ID          string
	Path        string
	Name        string
	ContentType string
	Size        int64
	Kind        string
}

// ArtifactRef is the public representation returned in API responses.
type ArtifactRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
	Kind        string `json:"kind,omitempty"`
}

// ArtifactStore keeps track of generated artifacts for later download.
type ArtifactStore struct {
	mu      sync.RWMutex
	entries map[string]Artifact
}

// NewServer constructs a Server rooted at a temporary workspace directory.
func NewServer(opts Options) (*Server, error) {
	opts = opts.withDefaults()
	store, err := opts.loadStore()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.StorageDir, 0o755); err != nil {
		return nil, err
	}
	workDir, err := os.MkdirTemp(opts.StorageDir, "fitd-")
	if err != nil {
		return nil, err
	}
	uploadsDir := filepath.Join(workDir, "uploads")
	if err := os.MkdirAll(uploadsDir, 0o755); err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}
	s := &Server{
		artifacts:      &ArtifactStore{entries: make(map[string]Artifact)},
		workDir:        workDir,
		uploadsDir:     uploadsDir,
		store:          store,
		metrics:        common.NewMetrics(),
		maxUploadBytes: opts.MaxUploadBytes,
	}
	return s, nil
}

// Close removes any temporary state associated with the server.
func (s *Server) Close() error {
	if s == nil || s.workDir == "" {
		return nil
	}
	return os.RemoveAll(s.workDir)
}

func (s *Server) tempPath(pattern string) (string, error) {
	f, err := os.CreateTemp(s.workDir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	f.Close()
	return name, nil
}

func (s *Server) addArtifact(path, displayName, contentType, kind string) (Artifact, error) {
	if path == "" {
		return Artifact{}, errors.New("empty path")
	}
	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, err
	}
	id := randomID()
	art := Artifact{
		ID:          id,
		Path:        path,
		Name:        displayName,
		ContentType: contentType,
		Size:        info.Size(),
		Kind:        kind,
	}
	if art.Name == "" {
		art.Name = filepath.Base(path)
	}
	if art.ContentType == "" {
		art.ContentType = guessContentType(art.Name)
	}
	s.artifacts.mu.Lock()
	s.artifacts.entries[id] = art
	s.artifacts.mu.Unlock()
	return art, nil
}

func (s *Server) getArtifact(id string) (Artifact, bool) {
	s.artifacts.mu.RLock()
	art, ok := s.artifacts.entries[id]
	s.artifacts.mu.RUnlock()
	return art, ok
}

func (s *Server) resolvePath(token string) (string, error) {
	if token == "" {
		return "", errors.New("empty input path")
	}
	if art, ok := s.getArtifact(token); ok {
		return art.Path, nil
	}
	abs := token
	if !filepath.IsAbs(token) {
		abs = filepath.Clean(token)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", err
	}
	return abs, nil
}

func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Inputs []string `json:"inputs"`
		PDF    bool     `json:"pdf"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "inputs required", http.StatusBadRequest)
		return
	}

	var summaries []report.FileSummary
	var artifacts []ArtifactRef
	for _, in := range req.Inputs {
		path, err := s.resolvePath(in)
		if err != nil {
			http.Error(w, fmt.Sprintf("resolve %s: %v", in, err), http.StatusBadRequest)
			return
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			http.Error(w, fmt.Sprintf("read %s: %v", in, err), http.StatusBadRequest)
			return
		}
		sum, err := report.Summarize(s.store, filepath.Base(path), buf)
		if err != nil {
			http.Error(w, fmt.Sprintf("decode %s: %v", in, err), http.StatusUnprocessableEntity)
			return
		}
		s.metrics.AddBytes(int64(len(buf)))
		s.metrics.AddMessages(int64(sum.Messages))
		summaries = append(summaries, sum)

		sumPath, err := s.tempPath("summary-*.json")
		if err != nil {
			http.Error(w, fmt.Sprintf("summary temp: %v", err), http.StatusInternalServerError)
			return
		}
		if err := report.SaveSummaryJSON(sum, sumPath); err != nil {
			http.Error(w, fmt.Sprintf("write summary: %v", err), http.StatusInternalServerError)
			return
		}
		sumArt, err := s.addArtifact(sumPath, "summary.json", "application/json", "summary")
		if err != nil {
			http.Error(w, fmt.Sprintf("register summary: %v", err), http.StatusInternalServerError)
			return
		}
		artifacts = append(artifacts, toRef(sumArt))

		if req.PDF {
			pdfPath, err := s.tempPath("summary-*.pdf")
			if err != nil {
				http.Error(w, fmt.Sprintf("pdf temp: %v", err), http.StatusInternalServerError)
				return
			}
			if err := report.SaveSummaryPDF(sum, pdfPath); err != nil {
				http.Error(w, fmt.Sprintf("write pdf: %v", err), http.StatusInternalServerError)
				return
			}
			pdfArt, err := s.addArtifact(pdfPath, "summary.pdf", "application/pdf", "summary")
			if err != nil {
				http.Error(w, fmt.Sprintf("register pdf: %v", err), http.StatusInternalServerError)
				return
			}
			artifacts = append(artifacts, toRef(pdfArt))
		}
	}

	resp := struct {
		Summaries []report.FileSummary `json:"summaries"`
		Artifacts []ArtifactRef        `json:"artifacts"`
	}{
		Summaries: summaries,
		Artifacts: artifacts,
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRecords streams the time-series samples of one activity file as
// newline-delimited JSON, one record per line, followed by a trailing
// summary object.
func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Input string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	path, err := s.resolvePath(req.Input)
	if err != nil {
		http.Error(w, fmt.Sprintf("resolve input: %v", err), http.StatusBadRequest)
		return
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		http.Error(w, fmt.Sprintf("read input: %v", err), http.StatusBadRequest)
		return
	}
	file, err := fit.ParseBytes(buf)
	if err != nil {
		http.Error(w, fmt.Sprintf("decode input: %v", err), http.StatusUnprocessableEntity)
		return
	}
	act := semantic.DecodeActivity(s.store, file.Messages)
	if act == nil {
		http.Error(w, "input is not an activity file", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	writer := NewNDJSONWriter(w)
	for i := range act.Records {
		if err := writer.WriteRecord(act.Records[i]); err != nil {
			return
		}
	}
	_ = writer.WriteObject(struct {
		Type    string `json:"type"`
		Sport   string `json:"sport"`
		Records int    `json:"records"`
		Laps    int    `json:"laps"`
	}{
		Type:    "summary",
		Sport:   act.Sport,
		Records: len(act.Records),
		Laps:    len(act.Laps),
	})
}

// handleMonitoring merges daily wellness aggregates across several files,
// typically one upload per device sync.
func (s *Server) handleMonitoring(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Inputs []string `json:"inputs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Inputs) == 0 {
		http.Error(w, "inputs required", http.StatusBadRequest)
		return
	}
	var lists [][]semantic.MonitoringDay
	for _, in := range req.Inputs {
		path, err := s.resolvePath(in)
		if err != nil {
			http.Error(w, fmt.Sprintf("resolve %s: %v", in, err), http.StatusBadRequest)
			return
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			http.Error(w, fmt.Sprintf("read %s: %v", in, err), http.StatusBadRequest)
			return
		}
		file, err := fit.ParseBytes(buf)
		if err != nil {
			http.Error(w, fmt.Sprintf("decode %s: %v", in, err), http.StatusUnprocessableEntity)
			return
		}
		if days := semantic.DecodeMonitoring(s.store, file.Messages); days != nil {
			lists = append(lists, days)
		}
	}
	merged := semantic.MergeDays(lists...)
	resp := struct {
		Days []semantic.MonitoringDay `json:"days"`
	}{Days: merged}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	snap := s.metrics.Snapshot()
	resp := struct {
		Status   string `json:"status"`
		Messages int64  `json:"messagesDecoded"`
		Resyncs  int64  `json:"resyncs"`
	}{
		Status:   "ok",
		Messages: snap.Messages,
		Resyncs:  snap.Resyncs,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleArtifactList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.listArtifacts())
}

func (s *Server) handleArtifactDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/artifacts/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	art, ok := s.getArtifact(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	f, err := os.Open(art.Path)
	if err != nil {
		http.Error(w, fmt.Sprintf("open artifact: %v", err), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, fmt.Sprintf("stat artifact: %v", err), http.StatusInternalServerError)
		return
	}
	if art.ContentType != "" {
		w.Header().Set("Content-Type", art.ContentType)
	}
	w.Header().Set("Content-Length", fmt.Sprintf("%d", info.Size()))
	disposition := fmt.Sprintf("attachment; filename=\"%s\"", art.Name)
	w.Header().Set("Content-Disposition", disposition)
	io.Copy(w, f)
}

func toRef(art Artifact) ArtifactRef {
	return ArtifactRef{
		ID:          art.ID,
		Name:        art.Name,
		ContentType: art.ContentType,
		Size:        art.Size,
		Kind:        art.Kind,
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func guessContentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".json":
		return "application/json"
	case ".yaml", ".yml":
		return "application/yaml"
	case ".ndjson":
		return "application/x-ndjson"
	case ".pdf":
		return "application/pdf"
	case ".fit":
		return "application/octet-stream"
	default:
		return "application/octet-stream"
	}
}

func randomID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		now := time.Now().UTC()
		return fmt.Sprintf("%d%06d", now.UnixNano(), os.Getpid())
	}
	return hex.EncodeToString(b[:])
}

func (s *Server) listArtifacts() []ArtifactRef {
	s.artifacts.mu.RLock()
	refs := make([]ArtifactRef, 0, len(s.artifacts.entries))
	for _, art := range s.artifacts.entries {
		refs = append(refs, toRef(art))
	}
	s.artifacts.mu.RUnlock()
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}
