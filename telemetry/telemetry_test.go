package telemetry

import (
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/thunderstorm509/dashboard/logging"
)

func TestKeys(t *testing.T) {
	test.That(t, ModuleAngleKey("/Thunderstorm", 0), test.ShouldEqual, "/Thunderstorm/Module0Angle")
	test.That(t, ModuleVelocityKey("/Thunderstorm", 3), test.ShouldEqual, "/Thunderstorm/Module3Velocity")
	test.That(t, ArmPivotKey("/Thunderstorm"), test.ShouldEqual, "/Thunderstorm/ArmPivot")
	test.That(t, ArmExtensionKey("/Thunderstorm"), test.ShouldEqual, "/Thunderstorm/ArmExtension")
}

func TestReadModules(t *testing.T) {
	store := NewMemoryStore()
	WriteModule(store, "/T", 0, 45, 1.5)
	store.SetDouble(ModuleAngleKey("/T", 1), 90)
	test.That(t, store.Keys(), test.ShouldResemble, []string{"/T/Module0Angle", "/T/Module0Velocity", "/T/Module1Angle"})

	samples := ReadModules(store, "/T", 3)
	test.That(t, samples, test.ShouldResemble, []Sample{
		{AngleDeg: 45, VelocityMPS: 1.5, Present: true},
		{AngleDeg: 90, VelocityMPS: 0, Present: false},
		{AngleDeg: 0, VelocityMPS: 0, Present: false},
	})

	// a different prefix sees nothing
	test.That(t, ReadModule(store, "/Other", 0), test.ShouldResemble, Sample{})
}

func TestReadArm(t *testing.T) {
	store := NewMemoryStore()
	test.That(t, ReadArm(store, "/T"), test.ShouldResemble, ArmSample{PivotDeg: -90})

	store.SetDouble(ArmPivotKey("/T"), 135)
	test.That(t, ReadArm(store, "/T"), test.ShouldResemble, ArmSample{PivotDeg: 45, Published: true})

	store.SetDouble(ArmExtensionKey("/T"), 5120)
	test.That(t, ReadArm(store, "/T"), test.ShouldResemble, ArmSample{PivotDeg: 45, Extension: 5120, Published: true})
	test.That(t, ReadArm(store, "/Other").Published, test.ShouldBeFalse)
}

func writeSnapshot(t *testing.T, path, contents string) {
	t.Helper()
	tmp := path + ".tmp"
	test.That(t, os.WriteFile(tmp, []byte(contents), 0o600), test.ShouldBeNil)
	test.That(t, os.Rename(tmp, path), test.ShouldBeNil)
}

func TestFileStore(t *testing.T) {
	logger, observed := logging.NewObservedTestLogger(t)
	path := filepath.Join(t.TempDir(), "telemetry.json")
	writeSnapshot(t, path, `{"/T/Module0Angle": 30, "/T/Module0Velocity": -2.5, "/T/Name": "thunderstorm"}`)

	fs, err := NewFileStore(path, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, fs.Close(), test.ShouldBeNil)
	}()
	test.That(t, fs.Reloads(), test.ShouldEqual, uint64(1))
	test.That(t, ReadModule(fs, "/T", 0), test.ShouldResemble, Sample{AngleDeg: 30, VelocityMPS: -2.5, Present: true})
	_, ok := fs.Double("/T/Name")
	test.That(t, ok, test.ShouldBeFalse)
	ignored := observed.FilterMessage("ignoring telemetry entry").All()
	test.That(t, len(ignored), test.ShouldEqual, 1)
	test.That(t, ignored[0].ContextMap()["key"], test.ShouldEqual, "/T/Name")
	test.That(t, ignored[0].ContextMap()["error"], test.ShouldEqual, "expected float64 but got string")

	writeSnapshot(t, path, `{"/T/Module0Angle": 60, "/T/Module0Velocity": 1}`)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		v, ok := fs.Double("/T/Module0Angle")
		test.That(tb, ok, test.ShouldBeTrue)
		test.That(tb, v, test.ShouldEqual, 60.0)
	})

	// a half-written file keeps the last good snapshot
	test.That(t, os.WriteFile(path, []byte(`{"/T/Module0Angle": `), 0o600), test.ShouldBeNil)
	test.That(t, fs.Reload(), test.ShouldNotBeNil)
	v, _ := fs.Double("/T/Module0Angle")
	test.That(t, v, test.ShouldEqual, 60.0)
}

func TestFileStoreMissingFile(t *testing.T) {
	logger := logging.NewTestLogger(t)
	path := filepath.Join(t.TempDir(), "later.json")

	fs, err := NewFileStore(path, logger)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, fs.Close(), test.ShouldBeNil)
	}()
	test.That(t, fs.Reloads(), test.ShouldEqual, uint64(0))
	test.That(t, ReadModule(fs, "/T", 0).Present, test.ShouldBeFalse)

	writeSnapshot(t, path, `{"/T/Module0Angle": 10, "/T/Module0Velocity": 2}`)
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		test.That(tb, ReadModule(fs, "/T", 0).Present, test.ShouldBeTrue)
	})
}

func TestFileStoreBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	test.That(t, os.WriteFile(path, []byte(`not json`), 0o600), test.ShouldBeNil)
	_, err := NewFileStore(path, logging.NewTestLogger(t))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "cannot parse telemetry file")
}
