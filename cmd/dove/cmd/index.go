package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/dove-unipi/dove/internal/directory"
	appLog "github.com/dove-unipi/dove/internal/log"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Generate the search index (data.json) from the room document",
	Long: `Generate the inline search index from the room document.

With --download the room document is fetched from data.url first and
saved to data.document.`,
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().Bool("download", false, "download the room document from data.url first")
	indexCmd.Flags().StringP("output", "o", "", "output file (default data.index from config)")
}

func runIndex(cmd *cobra.Command, _ []string) error {
	if download, _ := cmd.Flags().GetBool("download"); download {
		if err := downloadDocument(cmd.Context(), cfg.Data.URL, cfg.Data.Document); err != nil {
			return err
		}
		fmt.Printf("📥 Room document saved to %s\n", cfg.Data.Document)
	}

	doc, err := directory.ReadDocument(cfg.Data.Document)
	if err != nil {
		return err
	}
	entries := directory.BuildIndex(doc, directory.Options{BaseURL: cfg.Data.SiteURL, Titles: cfg.Titles()})

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		out = cfg.Data.Index
	}
	if err := writeIndex(expandPath(out), entries); err != nil {
		return err
	}

	fmt.Printf("✅ Wrote %d entries to %s\n", len(entries), out)
	return nil
}

func writeIndex(path string, entries []directory.Entry) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

func downloadDocument(ctx context.Context, url, path string) error {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading room document: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading room document: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("downloading room document: %w", err)
	}
	// Refuse to replace a good copy with something unparseable.
	if _, err := directory.ParseDocument(data); err != nil {
		return fmt.Errorf("downloaded room document is invalid: %w", err)
	}
	appLog.Debug("downloaded room document", "bytes", len(data))
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dove-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
