package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli"
	cmdCommon "github.com/tagwatch/tagwatch/cmd/common"
	"github.com/tagwatch/tagwatch/pkg/trackcli"
)

// readBatchFile parses a url list file: one url per line, blank lines
// and '#' comments skipped. Non-http lines fail the whole batch up
// front so a typo does not half-apply the file.
func readBatchFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if !strings.HasPrefix(text, "http://") && !strings.HasPrefix(text, "https://") {
			return nil, fmt.Errorf("line %d: %q is not an http(s) url", line, text)
		}
		urls = append(urls, text)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("no urls found in %s", path)
	}
	return urls, nil
}

// trackBatch tracks every url in the batch file with the same options.
// Per-url failures are reported and the batch continues; the summary
// line shows how many stuck.
func trackBatch(ctx *cli.Context, client *trackcli.Client, path string, opts *trackcli.TrackOpts) error {
	urls, err := readBatchFile(path)
	if err != nil {
		cmdCommon.PrintRuntimeErr(ctx, "track", "batch-file", err)
		return nil
	}

	var tracked int
	for _, url := range urls {
		t, err := client.Track(url, opts)
		if err != nil {
			fmt.Printf("tagwatch: track %s: %s\n", url, err.Error())
			continue
		}
		tracked++
		fmt.Printf("Tracking %s (%s)\n", t.Title, t.ProductId)
	}
	fmt.Printf("\nTracked %d of %d products.\n", tracked, len(urls))
	return nil
}
