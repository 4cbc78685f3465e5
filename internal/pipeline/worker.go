package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/romajiapi/internal/chunker"
	"github.com/dgallion1/romajiapi/internal/parser"
	"github.com/dgallion1/romajiapi/internal/romaji"
	"github.com/dgallion1/romajiapi/internal/translate"
)

// Worker processes a single document job.
type Worker struct {
	tr   Translator
	furi Furiganizer
	log  *slog.Logger

	chunkSize     int
	maxConcurrent int
	pdfFallback   bool
}

func NewWorker(tr Translator, furi Furiganizer, log *slog.Logger, chunkSize, maxConcurrent int, pdfFallback bool) *Worker {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	return &Worker{
		tr:            tr,
		furi:          furi,
		log:           log,
		chunkSize:     chunkSize,
		maxConcurrent: maxConcurrent,
		pdfFallback:   pdfFallback,
	}
}

// Process parses the upload and runs the job's kind over its text.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind)

	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, parser.Options{PDFFallbackPdftotext: w.pdfFallback})
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("parse failed", "error", err)
		job.AddError(fmt.Sprintf("parse: %s", err))
		job.SetStatus(StatusFailed, "parsing")
		return
	}
	text := doc.Text()
	job.SetParsed(doc.Title, ContentHashHex([]byte(text)))

	if strings.TrimSpace(text) == "" {
		log.Warn("no text extracted")
		job.AddError("no extractable content")
		job.SetStatus(StatusFailed, "parsing")
		return
	}

	job.SetStatus(StatusProcessing, "processing")
	switch job.Kind {
	case KindTranslate:
		w.translate(ctx, log, job, text)
	case KindFurigana:
		w.furigana(ctx, log, job, doc.Lines())
	default:
		job.AddError(fmt.Sprintf("unknown job kind %q", job.Kind))
		job.SetStatus(StatusFailed, "processing")
	}
}

func (w *Worker) translate(ctx context.Context, log *slog.Logger, job *Job, text string) {
	target := translate.NormalizeTarget(job.Target)
	source := translate.NormalizeSource(job.Source)

	chunks := chunker.Partition(text, w.chunkSize)
	job.SetTotalChunks(len(chunks))
	log.Info("partitioned document", "chunks", len(chunks))

	type chunkResult struct {
		text string
		err  error
		idx  int
	}
	results := make(chan chunkResult, len(chunks))
	sem := make(chan struct{}, w.maxConcurrent)

	for i, chunk := range chunks {
		sem <- struct{}{}
		go func() {
			defer func() { <-sem }()
			out, err := w.tr.Chunk(ctx, chunk, target, source)
			results <- chunkResult{text: out, err: err, idx: i}
		}()
	}

	out := make([]string, len(chunks))
	failed := 0
	for range chunks {
		r := <-results
		job.IncrChunksProcessed()
		if r.err != nil {
			log.Error("chunk translation failed", "chunk", r.idx, "error", r.err)
			job.AddError(fmt.Sprintf("chunk %d: %s", r.idx, r.err))
			out[r.idx] = translate.IncompleteMarker
			failed++
			continue
		}
		out[r.idx] = r.text
	}
	log.Info("translation complete", "chunks", len(chunks), "failed", failed)

	res := &Result{Translation: strings.Join(out, "\n")}
	switch {
	case failed == len(chunks):
		job.Finish(StatusFailed, nil)
	case failed > 0:
		job.Finish(StatusPartial, res)
	default:
		job.Finish(StatusCompleted, res)
	}
}

func (w *Worker) furigana(ctx context.Context, log *slog.Logger, job *Job, lines []string) {
	job.SetTotalChunks(len(lines))

	out := make([]romaji.Line, 0, len(lines))
	failed := 0
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			job.AddError(err.Error())
			job.Finish(StatusFailed, nil)
			return
		}
		tl, err := w.furi.TransformLine(ctx, line)
		job.IncrChunksProcessed()
		if err != nil {
			log.Error("line transform failed", "line", i, "error", err)
			job.AddError(fmt.Sprintf("line %d: %s", i, err))
			failed++
			continue
		}
		out = append(out, tl)
	}
	log.Info("furigana complete", "lines", len(lines), "failed", failed)

	res := &Result{Lines: out}
	switch {
	case failed == len(lines):
		job.Finish(StatusFailed, nil)
	case failed > 0:
		job.Finish(StatusPartial, res)
	default:
		job.Finish(StatusCompleted, res)
	}
}
