package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestObservedLevels(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)

	logger.Debugw("frame", "index", 3)
	logger.Info("plain")
	logger.Warnf("module %d missing", 2)
	test.That(t, observed.Len(), test.ShouldEqual, 3)

	entries := observed.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "frame")
	test.That(t, entries[0].ContextMap()["index"], test.ShouldEqual, int64(3))
	test.That(t, entries[2].Message, test.ShouldEqual, "module 2 missing")

	logger.SetLevel(WARN)
	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Error("kept")
	test.That(t, observed.FilterMessage("dropped").Len(), test.ShouldEqual, 0)
	test.That(t, observed.FilterMessage("kept").Len(), test.ShouldEqual, 1)
}

func TestUnpairedKey(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Infow("odd", "lonely")
	fields := observed.All()[0].Context
	test.That(t, len(fields), test.ShouldEqual, 1)
	test.That(t, fields[0].Key, test.ShouldEqual, "lonely")
}

func TestSublogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewBlankLogger("dash")
	logger.AddAppender(NewWriterAppender(&buf))

	sub := logger.Sublogger("drive")
	sub.Info("hello")
	test.That(t, buf.String(), test.ShouldContainSubstring, "dash.drive")
	test.That(t, buf.String(), test.ShouldContainSubstring, "hello")
	test.That(t, buf.String(), test.ShouldContainSubstring, "logging/impl_test.go")

	// levels are independent after creation
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	buf.Reset()
	sub.Warn("quiet")
	test.That(t, buf.Len(), test.ShouldEqual, 0)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in  string
		out Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"Warning", WARN},
		{" error ", ERROR},
	} {
		level, err := LevelFromString(tc.in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, tc.out)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, strings.Contains(err.Error(), "loud"), test.ShouldBeTrue)

	var level Level
	test.That(t, level.UnmarshalJSON([]byte(`"warn"`)), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
	out, err := level.MarshalJSON()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(out), test.ShouldEqual, `"warn"`)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.log")
	appender := NewFileAppender(path, 1, 1)
	logger := NewBlankLogger("dash")
	logger.AddAppender(appender)

	logger.Infow("frame", "index", 7)
	test.That(t, appender.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, "frame")
	test.That(t, string(contents), test.ShouldContainSubstring, `"index": 7`)
}
