package metadata

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

func timeNow() time.Time { return time.Now() }

const metadataStreamEnd = "</tt:MetadataStream>"

// objectRegex and classRegex mirror original_source/src/metadata_parser.cpp's
// std::regex patterns, ported to Go's RE2 syntax (same capture groups).
var (
	objectRegex = regexp.MustCompile(`(?s)<tt:Object ObjectId="(\d+)">.*?<tt:BoundingBox left="(\d+\.?\d*)" top="(\d+\.?\d*)" right="(\d+\.?\d*)" bottom="(\d+\.?\d*)"/>(.*?)</tt:Object>`)
	classRegex  = regexp.MustCompile(`<tt:ClassCandidate>\s*<tt:Type>(\w+)</tt:Type>\s*<tt:Likelihood>([\d.]+)</tt:Likelihood>`)
)

// Sink receives every completed Frame, including empty ones, as it is
// extracted from the stream (spec.md §4.6: "always enqueued, even with
// zero qualifying objects").
type Sink func(Frame)

// Parser manages the ffmpeg subprocess and the rolling XML read loop.
type Parser struct {
	rtspURL string
	log     zerolog.Logger
	onFrame Sink
	nowFn   func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// New builds a Parser for rtspURL. onFrame is invoked once per completed
// metadata block (spec.md C7 wires this to the bbox buffer's Enqueue).
func New(rtspURL string, onFrame Sink, log zerolog.Logger) *Parser {
	return &Parser{rtspURL: rtspURL, onFrame: onFrame, log: log.With().Str("component", "metadata").Logger(), nowFn: timeNow}
}

// Start launches the ffmpeg subprocess and the read loop, if not already
// running. Safe to call repeatedly (request 31's "if stopped" semantics).
func (p *Parser) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", p.rtspURL, "-map", "0:1", "-f", "data", "-")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("metadata: ffmpeg stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("metadata: start ffmpeg: %w", err)
	}

	p.running = true
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.readLoop(stdout, cmd)
	p.log.Info().Str("rtsp_url", p.rtspURL).Msg("metadata parser started")
	return nil
}

// Stop requests termination of the subprocess and blocks until the read
// loop has exited and the process has been reaped.
func (p *Parser) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.mu.Unlock()

	cancel()
	<-done

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// Running reports whether the parser currently owns a live subprocess.
func (p *Parser) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Parser) readLoop(stdout io.ReadCloser, cmd *exec.Cmd) {
	done := p.done
	defer close(done)
	defer func() {
		_ = cmd.Wait() // reap per spec.md §4.6
		// A subprocess that exits on its own leaves the parser stopped,
		// so a later Start relaunches it.
		p.mu.Lock()
		if p.done == done {
			p.running = false
		}
		p.mu.Unlock()
	}()

	reader := bufio.NewReaderSize(stdout, 8192)
	var xmlBuffer strings.Builder
	buf := make([]byte, 8192)

	for {
		n, err := reader.Read(buf)
		if n > 0 {
			xmlBuffer.Write(buf[:n])
			p.drainCompleteBlocks(&xmlBuffer)
		}
		if err != nil {
			if err != io.EOF {
				p.log.Warn().Err(err).Msg("metadata stream read error")
			}
			return
		}
		if !p.Running() {
			return
		}
	}
}

func (p *Parser) drainCompleteBlocks(xmlBuffer *strings.Builder) {
	for {
		content := xmlBuffer.String()
		idx := strings.Index(content, metadataStreamEnd)
		if idx < 0 {
			return
		}
		packet := content[:idx]
		rest := content[idx+len(metadataStreamEnd):]
		xmlBuffer.Reset()
		xmlBuffer.WriteString(rest)

		frame := Frame{Timestamp: p.nowFn(), Events: parseBlock(packet)}
		if p.onFrame != nil {
			p.onFrame(frame)
		}
	}
}

func parseBlock(packet string) []Event {
	matches := objectRegex.FindAllStringSubmatch(packet, -1)
	if len(matches) == 0 {
		return nil
	}
	events := make([]Event, 0, len(matches))
	for _, m := range matches {
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		left := truncFloat(m[2])
		top := truncFloat(m[3])
		right := truncFloat(m[4])
		bottom := truncFloat(m[5])

		ev := Event{ObjectID: id, Left: left, Top: top, Right: right, Bottom: bottom, Type: "Unknown", Confidence: 0}
		if cm := classRegex.FindStringSubmatch(m[6]); cm != nil {
			ev.Type = cm[1]
			if conf, err := strconv.ParseFloat(cm[2], 32); err == nil {
				ev.Confidence = float32(conf)
			}
		}
		events = append(events, ev)
	}
	return events
}

func truncFloat(s string) int {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int(f)
}
