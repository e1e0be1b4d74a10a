package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anime-shed/stego-inspector-go/pkg/models"
)

func writeSquare(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			c := color.RGBA{A: 255}
			if x >= 25 && x < 75 && y >= 25 && y < 75 {
				c = color.RGBA{255, 255, 255, 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o600))
	return path
}

func TestParseFlags(t *testing.T) {
	opts, err := parseFlags([]string{"-json", "-threshold", "0.5", "-output", "out", "img.png"}, io.Discard)
	require.NoError(t, err)
	assert.True(t, opts.jsonOutput)
	assert.Equal(t, 0.5, opts.threshold)
	assert.Equal(t, "out", opts.outputDir)
	assert.Equal(t, "img.png", opts.input)

	opts, err = parseFlags([]string{"img.png"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, -1.0, opts.threshold)

	_, err = parseFlags(nil, io.Discard)
	assert.Error(t, err)
	_, err = parseFlags([]string{"a.png", "b.png"}, io.Discard)
	assert.Error(t, err)
}

func TestRun_FileJSON(t *testing.T) {
	dir := t.TempDir()
	path := writeSquare(t, dir, "square.png")
	outDir := filepath.Join(dir, "reports")

	var out bytes.Buffer
	err := run(context.Background(), options{input: path, jsonOutput: true, threshold: -1, outputDir: outDir}, &out)
	require.NoError(t, err)

	var resp models.AnalysisResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.Equal(t, 1.0, resp.Result.DetectionProbability)
	assert.True(t, resp.Detected)
	assert.FileExists(t, filepath.Join(outDir, resp.ID+".analysis.json"))
}

func TestRun_DirectoryText(t *testing.T) {
	dir := t.TempDir()
	writeSquare(t, dir, "a.png")
	writeSquare(t, dir, "b.png")

	var out bytes.Buffer
	err := run(context.Background(), options{input: dir, threshold: -1, verbose: true}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "a.png")
	assert.Contains(t, text, "b.png")
	assert.Contains(t, text, "Analyzed 2 of 2 images (0 failed)")
	assert.Contains(t, text, "2 flagged")
	assert.Contains(t, text, "lsb_patterns.lsb_density = 0.25")
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	path := writeSquare(t, dir, "square.png")

	err := run(context.Background(), options{input: filepath.Join(dir, "absent.png"), threshold: -1}, io.Discard)
	assert.Error(t, err)

	err = run(context.Background(), options{input: path, threshold: 2}, io.Discard)
	assert.Error(t, err)
}
