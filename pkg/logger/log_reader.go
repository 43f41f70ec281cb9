package logger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tailPollInterval is how often TailLogs checks for new lines or a missing file
const tailPollInterval = 200 * time.Millisecond

// LogEntry represents a parsed log entry
type LogEntry struct {
	Timestamp string                 `json:"timestamp"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Category  string                 `json:"category"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
}

// LogReader provides functionality to read and stream log files
type LogReader struct {
	logsDir string
}

// NewLogReader creates a new log reader
func NewLogReader(logsDir string) *LogReader {
	return &LogReader{
		logsDir: logsDir,
	}
}

// GetLogPath returns the path to a category log file for a specific date
func (lr *LogReader) GetLogPath(category LogCategory, date time.Time) string {
	dateStr := date.Format("20060102")
	filename := fmt.Sprintf("%s-%s.log", category, dateStr)
	return filepath.Join(lr.logsDir, filename)
}

// GetTodayLogPath returns the path to today's log file for a category
func (lr *LogReader) GetTodayLogPath(category LogCategory) string {
	return lr.GetLogPath(category, time.Now())
}

// parseLine turns one JSON line written by MultiLogger into a LogEntry.
// Lines that are not JSON are returned as plain info messages.
func parseLine(line string, category LogCategory) LogEntry {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{
			Level:    "info",
			Message:  line,
			Category: string(category),
		}
	}

	entry := LogEntry{Category: string(category)}
	for key, value := range raw {
		switch key {
		case "ts":
			entry.Timestamp = fmt.Sprint(value)
		case "level":
			entry.Level = fmt.Sprint(value)
		case "msg":
			entry.Message = fmt.Sprint(value)
		case "category":
			entry.Category = fmt.Sprint(value)
		default:
			if entry.Fields == nil {
				entry.Fields = make(map[string]interface{})
			}
			entry.Fields[key] = value
		}
	}
	return entry
}

// ReadLogs reads the last limit entries from a category log file.
// A missing file yields no entries.
func (lr *LogReader) ReadLogs(category LogCategory, date time.Time, limit int) ([]LogEntry, error) {
	file, err := os.Open(lr.GetLogPath(category, date))
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if limit > 0 && len(lines) > limit {
		lines = lines[len(lines)-limit:]
	}

	entries := make([]LogEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, parseLine(line, category))
	}
	return entries, nil
}

// ReadTodayLogs reads today's log entries for a category
func (lr *LogReader) ReadTodayLogs(category LogCategory, limit int) ([]LogEntry, error) {
	return lr.ReadLogs(category, time.Now(), limit)
}

// SearchLogs returns entries whose message, level, or fields contain query
func (lr *LogReader) SearchLogs(category LogCategory, date time.Time, query string, limit int) ([]LogEntry, error) {
	entries, err := lr.ReadLogs(category, date, 0)
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var filtered []LogEntry
	for _, entry := range entries {
		if matches(entry, query) {
			filtered = append(filtered, entry)
		}
	}

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}
	return filtered, nil
}

func matches(entry LogEntry, query string) bool {
	if strings.Contains(strings.ToLower(entry.Message), query) ||
		strings.Contains(strings.ToLower(entry.Level), query) {
		return true
	}
	for _, v := range entry.Fields {
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), query) {
			return true
		}
	}
	return false
}

// TailLogs follows today's category log and sends new entries to entryChan
// until stopChan is closed. It waits for the file if it does not exist yet.
func (lr *LogReader) TailLogs(category LogCategory, entryChan chan<- LogEntry, stopChan <-chan struct{}) error {
	ticker := time.NewTicker(tailPollInterval)
	defer ticker.Stop()

	var file *os.File
	for file == nil {
		f, err := os.Open(lr.GetTodayLogPath(category))
		switch {
		case err == nil:
			file = f
		case !os.IsNotExist(err):
			return err
		default:
			select {
			case <-stopChan:
				return nil
			case <-ticker.C:
			}
		}
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	var partial string
	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			// keep the unterminated tail until the writer finishes the line
			partial += line
			select {
			case <-stopChan:
				return nil
			case <-ticker.C:
			}
			continue
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(partial + line)
		partial = ""
		if line == "" {
			continue
		}

		select {
		case entryChan <- parseLine(line, category):
		case <-stopChan:
			return nil
		}
	}
}
