package log

import (
	"fmt"
	"path"
	"runtime"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

type formatter struct {
	pattern string
	time    string
}

// Format expands %time, %level, %field, %msg, %caller, %func and %goroutine
// in the pattern.
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	output := f.pattern
	output = strings.Replace(output, "%time", entry.Time.Format(f.time), 1)
	output = strings.Replace(output, "%level", entry.Level.String(), 1)
	output = strings.Replace(output, "%field", buildFields(entry), 1)
	output = strings.Replace(output, "%msg", entry.Message, 1)
	if strings.Contains(output, "%caller") {
		output = strings.Replace(output, "%caller", getCaller(entry), 1)
	}
	if strings.Contains(output, "%func") {
		output = strings.Replace(output, "%func", getFunc(entry), 1)
	}
	if strings.Contains(output, "%goroutine") {
		output = strings.Replace(output, "%goroutine", getGoroutineID(), 1)
	}
	return []byte(output), nil
}

// getCaller renders package/file.go:line of the logging call site.
func getCaller(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "unknown"
	}
	pkg := ""
	if fn := entry.Caller.Function; fn != "" {
		if parts := strings.Split(fn, "."); len(parts) > 1 {
			pkg = path.Base(parts[0])
		}
	}
	return fmt.Sprintf("%s/%s:%d", pkg, path.Base(entry.Caller.File), entry.Caller.Line)
}

func getFunc(entry *logrus.Entry) string {
	if !entry.HasCaller() {
		return "unknown"
	}
	fn := entry.Caller.Function
	if i := strings.LastIndex(fn, "."); i != -1 && i+1 < len(fn) {
		return fn[i+1:]
	}
	return fn
}

func getGoroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	stack := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if id := strings.Fields(stack); len(id) > 0 {
		return id[0]
	}
	return "unknown"
}

// buildFields renders entry data as key=value pairs in key order.
func buildFields(entry *logrus.Entry) string {
	if len(entry.Data) == 0 {
		return ""
	}
	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]string, 0, len(keys))
	for _, k := range keys {
		val, ok := entry.Data[k].(string)
		if !ok {
			val = fmt.Sprint(entry.Data[k])
		}
		fields = append(fields, k+"="+val)
	}
	return strings.Join(fields, ",")
}
