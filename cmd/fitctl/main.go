package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"example.com/fitgate/internal/common"
	"example.com/fitgate/internal/fit"
	"example.com/fitgate/internal/profile"
	"example.com/fitgate/internal/report"
	"example.com/fitgate/internal/semantic"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "decode":
		decodeCmd(os.Args[2:])
	case "info":
		infoCmd(os.Args[2:])
	case "records":
		recordsCmd(os.Args[2:])
	case "monitoring":
		monitoringCmd(os.Args[2:])
	case "report":
		reportCmd(os.Args[2:])
	case "batch":
		batchCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`fitctl %s (built %s) <command> [options]

Commands:
  decode     --in <file.fit> [--profile <overlay.json>] [--out <summary.json>] [--pdf <summary.pdf>] [--metrics] [--progress]
  info       --in <file.fit>
  records    --in <file.fit> [--out <records.ndjson>]
  monitoring --in <comma-separated .fit files> [--out <days.json>]
  report     --summary <summary.json> --pdf <summary.pdf>
  batch      --in <dir> --out-dir <dir> [--profile <overlay.json>]
`, version, buildDate)
}

func loadProfile(path string) *profile.Store {
	if strings.TrimSpace(path) == "" {
		return profile.Builtin()
	}
	store, err := profile.EnsureLoaded(path)
	if err != nil {
		fmt.Println("load profile overlay:", err)
		os.Exit(1)
	}
	return store
}

func decodeCmd(args []string) {
	fs := newFlagSet("decode")
	in := fs.String("in", "", "input .fit")
	profilePath := fs.String("profile", "", "profile overlay JSON")
	out := fs.String("out", "", "summary JSON output")
	pdfOut := fs.String("pdf", "", "summary PDF output")
	metricsFlag := fs.Bool("metrics", false, "print decode throughput metrics")
	progressFlag := fs.Bool("progress", false, "display decode progress updates")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	store := loadProfile(*profilePath)
	buf, err := os.ReadFile(*in)
	if err != nil {
		fmt.Println("read input:", err)
		os.Exit(1)
	}

	metrics := common.NewMetrics()
	metrics.Start()
	var stopProgress func()
	if *progressFlag {
		stopProgress = common.StartProgressPrinter(os.Stderr, metrics, time.Second)
	}

	reader, err := fit.NewReader(buf)
	if err != nil {
		if stopProgress != nil {
			stopProgress()
		}
		fmt.Println("decode:", err)
		os.Exit(1)
	}
	reader.SetMetrics(metrics)
	file, err := fit.Drain(reader)
	metrics.Stop()
	if stopProgress != nil {
		stopProgress()
	}
	if err != nil {
		fmt.Println("decode:", err)
		os.Exit(1)
	}

	sum := report.FileSummary{
		Path:           *in,
		Fingerprint:    common.Sha256OfBytes(buf),
		SizeBytes:      int64(len(buf)),
		Classification: semantic.Classify(file.Messages),
		Messages:       len(file.Messages),
		SkippedRecords: file.SkippedRecords,
		SkippedBytes:   file.SkippedBytes,
	}
	if id, ok := semantic.DeviceInfo(file.Messages); ok {
		sum.Device = &id
	}
	sum.Activity = semantic.DecodeActivity(store, file.Messages)
	sum.MonitoringDays = semantic.DecodeMonitoring(store, file.Messages)

	if *out != "" {
		if err := report.SaveSummaryJSON(sum, *out); err != nil {
			fmt.Println("write summary:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote summary:", *out)
	} else {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(sum)
	}
	if *pdfOut != "" {
		if err := report.SaveSummaryPDF(sum, *pdfOut); err != nil {
			fmt.Println("write pdf:", err)
			os.Exit(1)
		}
		fmt.Println("Wrote PDF:", *pdfOut)
	}
	if *metricsFlag {
		snap := metrics.Snapshot()
		fmt.Fprintf(os.Stderr, "Decoded %d messages (%d definitions) from %s in %s\n",
			snap.Messages, snap.Definitions, common.FormatBytes(snap.Bytes), snap.Duration.Round(time.Millisecond))
		if snap.Resyncs > 0 {
			fmt.Fprintf(os.Stderr, "Resynchronized %d times\n", snap.Resyncs)
		}
	}
}

func infoCmd(args []string) {
	fs := newFlagSet("info")
	in := fs.String("in", "", "input .fit")
	fs.Parse(args)
	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	buf, err := os.ReadFile(*in)
	if err != nil {
		fmt.Println("read input:", err)
		os.Exit(1)
	}
	file, err := fit.ParseBytes(buf)
	if err != nil {
		fmt.Println("decode:", err)
		os.Exit(1)
	}

	store := profile.Builtin()
	counts := make(map[uint16]int)
	for _, msg := range file.Messages {
		counts[msg.GlobalMesgNum]++
	}
	nums := make([]uint16, 0, len(counts))
	for num := range counts {
		nums = append(nums, num)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	fmt.Printf("File:            %s\n", *in)
	fmt.Printf("Header:          %d bytes, protocol %d.%d, profile %d\n",
		file.Header.HeaderSize, file.Header.ProtocolVersion>>4, file.Header.ProtocolVersion&0x0F, file.Header.ProfileVersion)
	fmt.Printf("Data size:       %s\n", common.FormatBytes(int64(file.Header.DataSize)))
	fmt.Printf("Classification:  %s\n", semantic.Classify(file.Messages))
	if id, ok := semantic.DeviceInfo(file.Messages); ok {
		fmt.Printf("Device:          %s %s\n", id.Manufacturer, id.Product)
	}
	fmt.Printf("Fingerprint:     %s\n", common.Sha256OfBytes(buf))
	fmt.Printf("Messages:        %d\n", len(file.Messages))
	if file.SkippedRecords > 0 {
		fmt.Printf("Skipped:         %d records (%d bytes)\n", file.SkippedRecords, file.SkippedBytes)
	}
	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MESSAGE\tNUM\tCOUNT")
	for _, num := range nums {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", store.MessageName(num), num, counts[num])
	}
	tw.Flush()
}

func recordsCmd(args []string) {
	fs := newFlagSet("records")
	in := fs.String("in", "", "input .fit")
	profilePath := fs.String("profile", "", "profile overlay JSON")
	out := fs.String("out", "", "NDJSON output (default stdout)")
	fs.Parse(args)
	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	store := loadProfile(*profilePath)
	buf, err := os.ReadFile(*in)
	if err != nil {
		fmt.Println("read input:", err)
		os.Exit(1)
	}
	file, err := fit.ParseBytes(buf)
	if err != nil {
		fmt.Println("decode:", err)
		os.Exit(1)
	}
	act := semantic.DecodeActivity(store, file.Messages)
	if act == nil {
		fmt.Println("input is not an activity file")
		os.Exit(1)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fmt.Println("create output:", err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	for i := range act.Records {
		if err := enc.Encode(act.Records[i]); err != nil {
			fmt.Println("write record:", err)
			os.Exit(1)
		}
	}
	if *out != "" {
		fmt.Printf("Wrote %d records: %s\n", len(act.Records), *out)
	}
}

func monitoringCmd(args []string) {
	fs := newFlagSet("monitoring")
	in := fs.String("in", "", "comma-separated .fit files")
	profilePath := fs.String("profile", "", "profile overlay JSON")
	out := fs.String("out", "", "merged days JSON output (default stdout)")
	fs.Parse(args)
	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	store := loadProfile(*profilePath)

	var lists [][]semantic.MonitoringDay
	for _, path := range strings.Split(*in, ",") {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		buf, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("read %s: %v\n", path, err)
			os.Exit(1)
		}
		file, err := fit.ParseBytes(buf)
		if err != nil {
			fmt.Printf("decode %s: %v\n", path, err)
			os.Exit(1)
		}
		if days := semantic.DecodeMonitoring(store, file.Messages); days != nil {
			lists = append(lists, days)
		}
	}
	merged := semantic.MergeDays(lists...)

	if *out != "" {
		b, err := json.MarshalIndent(merged, "", "  ")
		if err != nil {
			fmt.Println("marshal days:", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*out, b, 0644); err != nil {
			fmt.Println("write days:", err)
			os.Exit(1)
		}
		fmt.Printf("Wrote %d days: %s\n", len(merged), *out)
		return
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.Encode(merged)
}

func reportCmd(args []string) {
	fs := newFlagSet("report")
	summaryPath := fs.String("summary", "", "summary.json produced by decode")
	pdfPath := fs.String("pdf", "", "output summary PDF")
	fs.Parse(args)
	if *summaryPath == "" || *pdfPath == "" {
		fmt.Println("required: --summary and --pdf")
		os.Exit(1)
	}
	sum, err := report.LoadSummaryJSON(*summaryPath)
	if err != nil {
		fmt.Println("load summary:", err)
		os.Exit(1)
	}
	if err := report.SaveSummaryPDF(sum, *pdfPath); err != nil {
		fmt.Println("write pdf:", err)
		os.Exit(1)
	}
	fmt.Println("Wrote PDF:", *pdfPath)
}

func batchCmd(args []string) {
	fs := newFlagSet("batch")
	inDir := fs.String("in", ".", "input directory")
	outDir := fs.String("out-dir", "out", "results directory")
	profilePath := fs.String("profile", "", "profile overlay JSON")
	fs.Parse(args)

	store := loadProfile(*profilePath)
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Println("create output dir:", err)
		os.Exit(1)
	}
	entries, err := os.ReadDir(*inDir)
	if err != nil {
		fmt.Println("read input dir:", err)
		os.Exit(1)
	}

	decoded, failed := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".fit") {
			continue
		}
		path := filepath.Join(*inDir, entry.Name())
		buf, err := os.ReadFile(path)
		if err != nil {
			fmt.Printf("read %s: %v\n", path, err)
			failed++
			continue
		}
		sum, err := report.Summarize(store, path, buf)
		if err != nil {
			fmt.Printf("decode %s: %v\n", path, err)
			failed++
			continue
		}
		base := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		outPath := filepath.Join(*outDir, base+".summary.json")
		if err := report.SaveSummaryJSON(sum, outPath); err != nil {
			fmt.Printf("write %s: %v\n", outPath, err)
			failed++
			continue
		}
		decoded++
	}
	fmt.Printf("Decoded %d files, %d failed\n", decoded, failed)
	if failed > 0 {
		os.Exit(1)
	}
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ExitOnError)
}
