package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/ccollicutt/sensorlog/pkg/event"
	"github.com/ccollicutt/sensorlog/pkg/store"
)

func eventXML(id, start string) string {
	return fmt.Sprintf(`  <event id="%s" type="ICMP" desc="ICMP Echo Request" action="Ignore" name="ICMP Echo Request" protocol="ICMP" severity="Low">
    <client domain="WORKGROUP" ip="10.0.0.1" port="0"/>
    <host ip="10.0.0.9" bindip="10.0.0.8" port="7"/>
    <connection closedby="Client"/>
    <start>%s</start>
    <recBytes>1500</recBytes>
    <received>abcd</received>
  </event>
`, id, start)
}

func document(events ...string) string {
	return "<?xml version=\"1.0\"?>\n<log>\n" + strings.Join(events, "") + "</log>\n"
}

func TestParser_Parse(t *testing.T) {
	doc := document(eventXML("1", "2014-06-01 10:00:01:000"))

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !result.Complete {
		t.Error("Complete = false, want true")
	}
	if result.Records != 1 {
		t.Fatalf("Records = %d, want 1", result.Records)
	}

	ev, ok := result.Store.Get("0000000001")
	if !ok {
		t.Fatal("event 0000000001 not found")
	}

	want := map[event.Field]string{
		event.FieldID:         "0000000001",
		event.FieldType:       "ICMP",
		event.FieldDesc:       "ICMP Echo Request",
		event.FieldAction:     "Ignore",
		event.FieldName:       "ICMP Echo Request",
		event.FieldProtocol:   "ICMP",
		event.FieldSeverity:   "Low",
		event.FieldDomain:     "WORKGROUP",
		event.FieldClientIP:   "10.0.0.1",
		event.FieldClientPort: "0",
		event.FieldHostIP:     "10.0.0.9",
		event.FieldBindIP:     "10.0.0.8",
		event.FieldHostPort:   "7",
		event.FieldClosedBy:   "Client",
		event.FieldStart:      "2014-06-01 10:00:01:000",
		event.FieldRecBytes:   "1500",
		event.FieldReceived:   "abcd",
	}
	for f, w := range want {
		got := ev.Get(f)
		if got == nil {
			t.Errorf("%s is absent, want %q", f, w)
			continue
		}
		if *got != w {
			t.Errorf("%s = %q, want %q", f, *got, w)
		}
	}
}

func TestParser_AbsentAttributesStayAbsent(t *testing.T) {
	doc := `<log><event id="3"><client ip="1.2.3.4"/><start>2014-06-01 10:00:01:000</start></event></log>`

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ev, _ := result.Store.Get("0000000003")
	for _, f := range []event.Field{event.FieldType, event.FieldDomain, event.FieldClientPort, event.FieldHostIP, event.FieldRecBytes, event.FieldReceived} {
		if v := ev.Get(f); v != nil {
			t.Errorf("%s = %q, want absent", f, *v)
		}
	}
}

func TestParser_IDsArePadded(t *testing.T) {
	doc := document(
		eventXML("5", "2014-06-01 10:00:01:000"),
		eventXML("123456", "2014-06-01 10:00:02:000"),
		eventXML("42", "2014-06-01 10:00:03:000"),
	)

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	for _, id := range result.Store.IDs() {
		if len(id) != event.IDWidth || id[0] != '0' {
			t.Errorf("id %q is not zero-padded to %d", id, event.IDWidth)
		}
	}
}

func TestParser_MalformedEventSkipped(t *testing.T) {
	doc := document(
		eventXML("1", "2014-06-01 10:00:01:000"),
		eventXML("2", "2014-06-01 10:00"),
		eventXML("3", "2014-06-01 10:00:03:000"),
		eventXML("4", "2014-06-01 10:00:04:000"),
		eventXML("5", "2014-06-01 10:00:05:000"),
	)

	var logs bytes.Buffer
	result, err := New(WithLogger(zerolog.New(&logs))).Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	events := result.Store.AllEvents()
	if len(events) != 4 {
		t.Fatalf("AllEvents() returned %d events, want 4", len(events))
	}
	if got := strings.Count(logs.String(), "skipping event"); got != 1 {
		t.Errorf("got %d skip warnings, want 1:\n%s", got, logs.String())
	}
	if !strings.Contains(logs.String(), "0000000002") {
		t.Errorf("warning does not name the skipped event:\n%s", logs.String())
	}
}

func TestParser_MalformedDocumentKeepsCompletedEvents(t *testing.T) {
	doc := "<log>\n" +
		eventXML("1", "2014-06-01 10:00:01:000") +
		eventXML("2", "2014-06-01 10:00:02:000") +
		"  <event id=\"3\"><start>2014-06-01 10:00:03:000</event>\n" +
		eventXML("4", "2014-06-01 10:00:04:000") +
		"</log>\n"

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err == nil {
		t.Fatal("Parse() expected error for malformed document")
	}
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("error %v does not wrap ErrMalformedDocument", err)
	}

	var docErr *DocumentError
	if !errors.As(err, &docErr) {
		t.Fatalf("error %T is not a *DocumentError", err)
	}
	if docErr.Records != 2 {
		t.Errorf("DocumentError.Records = %d, want 2", docErr.Records)
	}
	if docErr.Line < 1 {
		t.Errorf("DocumentError.Line = %d, want >= 1", docErr.Line)
	}

	if result == nil {
		t.Fatal("Parse() returned nil result for malformed document")
	}
	if result.Complete {
		t.Error("Complete = true, want false")
	}
	if len(result.Store.AllEvents()) != 2 {
		t.Errorf("AllEvents() = %d, want 2", len(result.Store.AllEvents()))
	}
}

func TestParser_TruncatedDocument(t *testing.T) {
	doc := "<log>\n" + eventXML("1", "2014-06-01 10:00:01:000") + "  <event id=\"2\">"

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("Parse() error = %v, want ErrMalformedDocument", err)
	}
	if result.Records != 1 {
		t.Errorf("Records = %d, want 1", result.Records)
	}
}

func TestParser_StartTruncatedTo23(t *testing.T) {
	doc := `<log><event id="1"><start>2014-06-01 10:00:01:000999 extra</start></event></log>`

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ev, _ := result.Store.Get("0000000001")
	if *ev.Start != "2014-06-01 10:00:01:000" {
		t.Errorf("Start = %q, want truncated timestamp", *ev.Start)
	}
}

func TestParser_TextOutsideLeafDiscarded(t *testing.T) {
	doc := `<log>stray<event id="1">loose text<other>ignored</other><start>2014-06-01 10:00:01:000</start>
    after start<recBytes>12</recBytes>  </event></log>`

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ev, _ := result.Store.Get("0000000001")
	if *ev.Start != "2014-06-01 10:00:01:000" {
		t.Errorf("Start = %q", *ev.Start)
	}
	if *ev.RecBytes != "12" {
		t.Errorf("RecBytes = %q, want %q", *ev.RecBytes, "12")
	}
}

func TestParser_EventWithoutIDDropped(t *testing.T) {
	doc := `<log><event type="x"><start>2014-06-01 10:00:01:000</start></event>` +
		`<event id="2"><start>2014-06-01 10:00:02:000</start></event></log>`

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if result.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", result.Dropped)
	}
	if result.Store.Len() != 1 {
		t.Errorf("Store.Len() = %d, want 1", result.Store.Len())
	}
}

func TestParser_CustomRootElement(t *testing.T) {
	var logs bytes.Buffer
	doc := `<kfsensor><event id="1"><start>2014-06-01 10:00:01:000</start></event></kfsensor>`

	p := New(WithRootElement("kfsensor"), WithLogger(zerolog.New(&logs)))
	if _, err := p.Parse(context.Background(), strings.NewReader(doc)); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !strings.Contains(logs.String(), "started parsing") || !strings.Contains(logs.String(), "finished parsing") {
		t.Errorf("missing lifecycle messages:\n%s", logs.String())
	}
}

func TestParser_Latin1Document(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<log><event id=\"1\" desc=\"caf\xe9\"><start>2014-06-01 10:00:01:000</start></event></log>")

	result, err := New().Parse(context.Background(), bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ev, _ := result.Store.Get("0000000001")
	if *ev.Desc != "café" {
		t.Errorf("Desc = %q, want %q", *ev.Desc, "café")
	}
}

func TestParser_Windows1252Document(t *testing.T) {
	doc := []byte("<?xml version=\"1.0\" encoding=\"windows-1252\"?>\n<log><event id=\"1\" desc=\"price \x80 \x93q\x94\"><start>2014-06-01 10:00:01:000</start></event></log>")

	result, err := New().Parse(context.Background(), bytes.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ev, _ := result.Store.Get("0000000001")
	if want := "price \u20ac \u201cq\u201d"; *ev.Desc != want {
		t.Errorf("Desc = %q, want %q", *ev.Desc, want)
	}
}

func TestParser_UnsupportedEncoding(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ebcdic\"?>\n<log></log>"

	_, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err == nil {
		t.Error("Parse() expected error for unsupported encoding")
	}
}

func TestParser_StartTruncatedOnCharacterBoundary(t *testing.T) {
	doc := "<log><event id=\"1\"><start>2014-06-01 10:00:01:00\u00e9\u00e9</start></event></log>"

	result, err := New().Parse(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	ev, _ := result.Store.Get("0000000001")
	if want := "2014-06-01 10:00:01:00\u00e9"; *ev.Start != want {
		t.Errorf("Start = %q, want %q", *ev.Start, want)
	}
	if !utf8.ValidString(*ev.Start) {
		t.Errorf("Start = %q is not valid UTF-8", *ev.Start)
	}
	if !ev.HasValidStart() {
		t.Error("HasValidStart() = false for a 23-character start")
	}
	if _, err := ev.StartTime(); err == nil {
		t.Error("StartTime() expected error for non-digit milliseconds")
	}
}

func TestParser_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Parse(ctx, strings.NewReader(document(eventXML("1", "2014-06-01 10:00:01:000"))))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Parse() error = %v, want context.Canceled", err)
	}
}

func TestParser_ParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test1.log")
	if err := os.WriteFile(path, []byte(document(eventXML("1", "2014-06-01 10:00:01:000"))), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := New().ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ParseFile() error = %v", err)
	}
	if result.Records != 1 {
		t.Errorf("Records = %d, want 1", result.Records)
	}

	if _, err := New().ParseFile(context.Background(), filepath.Join(dir, "missing.log")); err == nil {
		t.Error("ParseFile() expected error for missing file")
	}
}

func TestBuilder_ChunkedCharData(t *testing.T) {
	s := store.New()
	b := NewBuilder(s, "", zerolog.Nop())

	b.StartElement("log", nil)
	b.StartElement("event", map[string]string{"id": "9"})
	if !b.InRecord() {
		t.Fatal("InRecord() = false after event start")
	}
	b.StartElement("start", nil)
	for _, chunk := range []string{"2014-06-01 ", "10:00:", "01:0", "00", "123"} {
		b.CharData([]byte(chunk))
	}
	b.EndElement("start")
	b.StartElement("recBytes", nil)
	b.CharData([]byte("15"))
	b.CharData([]byte("00"))
	b.EndElement("recBytes")
	b.StartElement("received", nil)
	b.CharData([]byte("ab"))
	b.CharData([]byte("cd"))
	b.EndElement("received")
	b.EndElement("event")
	b.EndElement("log")

	if b.InRecord() {
		t.Error("InRecord() = true after event end")
	}

	ev, ok := s.Get("0000000009")
	if !ok {
		t.Fatal("event not inserted")
	}
	if *ev.Start != "2014-06-01 10:00:01:000" {
		t.Errorf("Start = %q", *ev.Start)
	}
	if *ev.RecBytes != "1500" {
		t.Errorf("RecBytes = %q", *ev.RecBytes)
	}
	if *ev.Received != "abcd" {
		t.Errorf("Received = %q", *ev.Received)
	}
}

func TestBuilder_SubElementOutsideEvent(t *testing.T) {
	s := store.New()
	b := NewBuilder(s, "", zerolog.Nop())

	b.StartElement("client", map[string]string{"ip": "1.1.1.1"})
	b.StartElement("start", nil)
	b.CharData([]byte("2014-06-01 10:00:01:000"))
	b.EndElement("start")

	if s.Len() != 0 || b.Records() != 0 {
		t.Error("elements outside an event should not produce records")
	}
}
