package matrix

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultBufferSize = 1 << 20 // 1 MiB
	defaultChunkSize  = 8 << 20 // 8 MiB
	defaultBatchLines = 1024
)

// ReadOptions controls delimited-table parsing performance characteristics.
type ReadOptions struct {
	BufferSize      int           // Size of the bufio.Reader buffer
	ChunkSize       int           // Bytes to read per chunk before splitting into lines
	BatchLines      int           // How many lines to hand to a worker at once
	Workers         int           // Number of parsing workers
	Delimiter       byte          // Field delimiter ('\t' or ',')
	StrictColumns   bool          // Enforce a fixed column count (first row if ExpectedColumns == 0)
	ExpectedColumns int           // Expected column count when StrictColumns is true (0 to infer from first row)
	AllowCRLF       bool          // Trim trailing \r when present
	OnRow           func()        // Optional per-row hook (progress reporting)
	Timeout         time.Duration
}

// Row is a view over one table line. Fields point into an internal buffer and
// are only valid for the duration of the callback in ReadRows.
type Row struct {
	Line   int64
	Fields [][]byte
}

type bufferRef struct {
	buf  []byte
	pool *sync.Pool
	slot *pooledBuf
	ref  int32
}

type pooledBuf struct {
	buf []byte
}

func (b *bufferRef) release() {
	if b == nil {
		return
	}
	if atomic.AddInt32(&b.ref, -1) == 0 {
		if b.slot != nil {
			b.slot.buf = b.buf[:cap(b.buf)]
			b.pool.Put(b.slot)
		}
	}
}

type lineBatch struct {
	seq      int64
	buf      *bufferRef
	lines    [][]byte
	lineNums []int64
}

type parseResult struct {
	seq  int64
	rows []Row
	err  error
	buf  *bufferRef
}

// DefaultReadOptions returns a tuned baseline for large count tables.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{
		BufferSize: defaultBufferSize,
		ChunkSize:  defaultChunkSize,
		BatchLines: defaultBatchLines,
		Workers:    runtime.GOMAXPROCS(0),
		Delimiter:  '\t',
		AllowCRLF:  true,
	}
}

func (o ReadOptions) withDefaults() ReadOptions {
	if o.BufferSize <= 0 {
		o.BufferSize = defaultBufferSize
	}
	if o.ChunkSize <= 0 {
		o.ChunkSize = defaultChunkSize
	}
	if o.BatchLines <= 0 {
		o.BatchLines = defaultBatchLines
	}
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	if o.Delimiter == 0 {
		o.Delimiter = '\t'
	}
	return o
}

// ReadRows streams a delimited table from r, invoking onRow for each line in
// file order. It keeps memory bounded by reusing chunk buffers; row data is
// only valid inside onRow.
func ReadRows(r io.Reader, opts ReadOptions, onRow func(Row) error) error {
	opts = opts.withDefaults()

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if opts.Timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), opts.Timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	defer cancel()

	bufPool := &sync.Pool{
		New: func() any {
			return &pooledBuf{buf: make([]byte, opts.ChunkSize)}
		},
	}

	batches := make(chan *lineBatch, opts.Workers*2)
	results := make(chan parseResult, opts.Workers*2)
	readErrCh := make(chan error, 1)

	go func() {
		reader := bufio.NewReaderSize(r, opts.BufferSize)
		readErrCh <- readBatches(ctx, reader, opts, bufPool, batches)
		close(batches)
	}()

	var workerWG sync.WaitGroup
	for i := 0; i < opts.Workers; i++ {
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			workerLoop(opts, batches, results)
		}()
	}

	go func() {
		workerWG.Wait()
		close(results)
	}()

	err := consumeResults(ctx, opts, results, cancel, onRow)
	if err != nil {
		cancel()
	}

	readErr := <-readErrCh
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if readErr != nil && readErr != context.Canceled {
		return readErr
	}
	return nil
}

func readBatches(ctx context.Context, r *bufio.Reader, opts ReadOptions, pool *sync.Pool, batches chan<- *lineBatch) error {
	tail := make([]byte, 0, 1024)
	var seq int64
	var lineNum int64

	for {
		if ctx.Err() != nil {
			return context.Canceled
		}

		slot := pool.Get().(*pooledBuf)
		buf := slot.buf
		needed := opts.ChunkSize + len(tail)
		if cap(buf) < needed {
			buf = make([]byte, needed)
		}

		copy(buf, tail)
		n, err := r.Read(buf[len(tail):needed])
		if n == 0 && err == io.EOF {
			slot.buf = buf[:cap(buf)]
			pool.Put(slot)
			break
		}
		if err != nil && err != io.EOF && n == 0 {
			slot.buf = buf[:cap(buf)]
			pool.Put(slot)
			return err
		}

		dataLen := len(tail) + n
		data := buf[:dataLen]
		lines := make([][]byte, 0, opts.BatchLines*2)
		lineNums := make([]int64, 0, opts.BatchLines*2)

		start := 0
		for i, b := range data {
			if b == '\n' {
				line := data[start:i]
				if opts.AllowCRLF && len(line) > 0 && line[len(line)-1] == '\r' {
					line = line[:len(line)-1]
				}
				lineNum++
				lines = append(lines, line)
				lineNums = append(lineNums, lineNum)
				start = i + 1
			}
		}

		tail = tail[:0]
		if start < len(data) {
			tail = append(tail, data[start:]...)
		}

		if len(lines) > 0 {
			batchSize := opts.BatchLines
			if batchSize > len(lines) {
				batchSize = len(lines)
			}
			batchCount := (len(lines) + batchSize - 1) / batchSize
			ref := &bufferRef{
				buf:  buf[:dataLen],
				pool: pool,
				slot: slot,
				ref:  int32(batchCount),
			}

			for i := 0; i < batchCount; i++ {
				startIdx := i * batchSize
				endIdx := startIdx + batchSize
				if endIdx > len(lines) {
					endIdx = len(lines)
				}

				batch := &lineBatch{
					seq:      seq,
					buf:      ref,
					lines:    lines[startIdx:endIdx],
					lineNums: lineNums[startIdx:endIdx],
				}
				seq++

				select {
				case batches <- batch:
				case <-ctx.Done():
					ref.release()
					return context.Canceled
				}
			}
		} else {
			slot.buf = buf[:cap(buf)]
			pool.Put(slot)
		}

		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
	}

	if len(tail) > 0 {
		slot := pool.Get().(*pooledBuf)
		buf := slot.buf
		if cap(buf) < len(tail) {
			buf = make([]byte, len(tail))
		}
		copy(buf, tail)
		ref := &bufferRef{
			buf:  buf[:len(tail)],
			pool: pool,
			slot: slot,
			ref:  1,
		}
		lineNum++
		batch := &lineBatch{
			seq:      seq,
			buf:      ref,
			lines:    [][]byte{ref.buf},
			lineNums: []int64{lineNum},
		}
		select {
		case batches <- batch:
		case <-ctx.Done():
			ref.release()
			return context.Canceled
		}
	}

	return nil
}

func workerLoop(opts ReadOptions, batches <-chan *lineBatch, results chan<- parseResult) {
	for batch := range batches {
		rows := make([]Row, 0, len(batch.lines))
		for i, line := range batch.lines {
			fields := splitFields(line, opts.Delimiter, opts.ExpectedColumns)
			rows = append(rows, Row{
				Line:   batch.lineNums[i],
				Fields: fields,
			})
		}
		results <- parseResult{
			seq:  batch.seq,
			rows: rows,
			buf:  batch.buf,
		}
	}
}

func consumeResults(ctx context.Context, opts ReadOptions, results <-chan parseResult, cancel context.CancelFunc, onRow func(Row) error) error {
	expectedSeq := int64(0)
	pending := make(map[int64]parseResult)
	var err error
	expectedColumns := opts.ExpectedColumns

	processResult := func(res parseResult) {
		if res.err != nil && err == nil {
			err = res.err
			cancel()
		}
		if err != nil {
			res.buf.release()
			return
		}

		for _, row := range res.rows {
			if ctx.Err() != nil {
				err = ctx.Err()
				break
			}
			// Blank lines (trailing newlines included) are not rows.
			if len(row.Fields) == 1 && len(bytes.TrimSpace(row.Fields[0])) == 0 {
				continue
			}
			if opts.StrictColumns {
				if expectedColumns == 0 {
					expectedColumns = len(row.Fields)
				} else if len(row.Fields) != expectedColumns {
					err = fmt.Errorf("line %d: expected %d columns, got %d", row.Line, expectedColumns, len(row.Fields))
					break
				}
			}
			if opts.OnRow != nil {
				opts.OnRow()
			}
			if cbErr := onRow(row); cbErr != nil {
				err = cbErr
				break
			}
		}
		res.buf.release()
		if err != nil {
			cancel()
		}
	}

	for res := range results {
		if err != nil {
			res.buf.release()
			continue
		}

		pending[res.seq] = res
		for {
			next, ok := pending[expectedSeq]
			if !ok {
				break
			}
			delete(pending, expectedSeq)
			processResult(next)
			expectedSeq++
			if err != nil {
				break
			}
		}
	}

	if err != nil {
		for _, res := range pending {
			res.buf.release()
		}
	} else if len(pending) > 0 {
		for _, res := range pending {
			processResult(res)
		}
	}

	return err
}

func splitFields(line []byte, delim byte, expected int) [][]byte {
	// expected guides capacity to reduce slice growth.
	capacity := expected
	if capacity == 0 {
		capacity = 8
	}
	fields := make([][]byte, 0, capacity)

	start := 0
	for i, b := range line {
		if b == delim {
			fields = append(fields, line[start:i])
			start = i + 1
		}
	}
	fields = append(fields, line[start:])
	return fields
}
