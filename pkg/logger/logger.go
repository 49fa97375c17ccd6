package logger

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[Level]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

var (
	mu           sync.RWMutex
	currentLevel = INFO
	sink         = &fileSink{}
)

type fileSink struct {
	mu           sync.Mutex
	file         *os.File
	path         string
	maxSizeBytes int64
	maxAgeDays   int
}

type entry struct {
	Level     string                 `json:"level"`
	Timestamp string                 `json:"timestamp"`
	Component string                 `json:"component,omitempty"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
}

func SetLevel(level Level) {
	mu.Lock()
	defer mu.Unlock()
	currentLevel = level
}

func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return currentLevel
}

// ParseLevel maps a config string to a Level, defaulting to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "info", "":
		return INFO
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// EnableFile turns on the JSON-lines file sink. Rotated files are named
// <path>.<timestamp> and removed once older than maxAgeDays.
func EnableFile(path string, maxSizeMB, maxAgeDays int) error {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	if maxAgeDays <= 0 {
		maxAgeDays = 3
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	sink.mu.Lock()
	if sink.file != nil {
		sink.file.Close()
	}
	sink.file = file
	sink.path = path
	sink.maxSizeBytes = int64(maxSizeMB) * 1024 * 1024
	sink.maxAgeDays = maxAgeDays
	sink.mu.Unlock()

	if err := sink.removeExpired(); err != nil {
		log.Println("Failed to clean up old log files:", err)
	}
	return nil
}

func DisableFile() {
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if sink.file != nil {
		sink.file.Close()
		sink.file = nil
		sink.path = ""
		sink.maxSizeBytes = 0
		sink.maxAgeDays = 0
	}
}

func emit(level Level, component, message string, fields map[string]interface{}) {
	if level < GetLevel() {
		return
	}

	e := entry{
		Level:     levelNames[level],
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Component: component,
		Message:   message,
		Fields:    fields,
	}

	if level >= WARN {
		if _, file, line, ok := runtime.Caller(2); ok {
			e.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}

	if data, err := json.Marshal(e); err == nil {
		if err := sink.writeLine(append(data, '\n')); err != nil {
			log.Println("Failed to write file log:", err)
		}
	}

	var fieldStr string
	if len(fields) > 0 {
		fieldStr = " " + formatFields(fields)
	}
	log.Printf("[%s] [%s]%s %s%s", e.Timestamp, e.Level, formatComponent(component), message, fieldStr)

	if level == FATAL {
		os.Exit(1)
	}
}

func (s *fileSink) writeLine(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}
	if s.maxSizeBytes > 0 {
		if err := s.rotateIfNeeded(int64(len(line))); err != nil {
			return err
		}
	}
	_, err := s.file.Write(line)
	return err
}

func (s *fileSink) rotateIfNeeded(nextWrite int64) error {
	info, err := s.file.Stat()
	if err != nil {
		return err
	}
	if info.Size()+nextWrite <= s.maxSizeBytes {
		return nil
	}

	if err := s.file.Close(); err != nil {
		return err
	}
	rotated := fmt.Sprintf("%s.%s", s.path, time.Now().UTC().Format("20060102-150405"))
	if err := os.Rename(s.path, rotated); err != nil {
		return err
	}
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	s.file = file

	return s.expireLocked()
}

func (s *fileSink) removeExpired() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expireLocked()
}

func (s *fileSink) expireLocked() error {
	if s.maxAgeDays <= 0 || s.path == "" {
		return nil
	}

	dir := filepath.Dir(s.path)
	base := filepath.Base(s.path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	cutoff := time.Now().AddDate(0, 0, -s.maxAgeDays)
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		// Only rotated files like bottelegram.log.20260825-120000 qualify.
		name := ent.Name()
		if !strings.HasPrefix(name, base+".") {
			continue
		}
		info, err := ent.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
	return nil
}

func formatComponent(component string) string {
	if component == "" {
		return ""
	}
	return fmt.Sprintf(" %s:", component)
}

// formatFields renders fields in key order so console lines are stable.
func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
}

func Debug(message string) {
	emit(DEBUG, "", message, nil)
}

func DebugC(component, message string) {
	emit(DEBUG, component, message, nil)
}

func DebugCF(component, message string, fields map[string]interface{}) {
	emit(DEBUG, component, message, fields)
}

func Info(message string) {
	emit(INFO, "", message, nil)
}

func InfoC(component, message string) {
	emit(INFO, component, message, nil)
}

func InfoCF(component, message string, fields map[string]interface{}) {
	emit(INFO, component, message, fields)
}

func Warn(message string) {
	emit(WARN, "", message, nil)
}

func WarnC(component, message string) {
	emit(WARN, component, message, nil)
}

func WarnCF(component, message string, fields map[string]interface{}) {
	emit(WARN, component, message, fields)
}

func Error(message string) {
	emit(ERROR, "", message, nil)
}

func ErrorC(component, message string) {
	emit(ERROR, component, message, nil)
}

func ErrorCF(component, message string, fields map[string]interface{}) {
	emit(ERROR, component, message, fields)
}

func Fatal(message string) {
	emit(FATAL, "", message, nil)
}

func FatalC(component, message string) {
	emit(FATAL, component, message, nil)
}

func FatalCF(component, message string, fields map[string]interface{}) {
	emit(FATAL, component, message, fields)
}
