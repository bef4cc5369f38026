package telemetry

// Sample is one module's raw reading for a frame.
type Sample struct {
	AngleDeg    float64
	VelocityMPS float64
	// Present is false when either entry was missing and its zero default was used.
	Present bool
}

// ReadModule reads module i. Missing entries read as 0, matching what the robot publishes
// before its drive subsystem starts.
func ReadModule(store Store, prefix string, i int) Sample {
	angle, angleOK := store.Double(ModuleAngleKey(prefix, i))
	velocity, velocityOK := store.Double(ModuleVelocityKey(prefix, i))
	if !angleOK {
		angle = 0
	}
	if !velocityOK {
		velocity = 0
	}
	return Sample{AngleDeg: angle, VelocityMPS: velocity, Present: angleOK && velocityOK}
}

// ReadModules reads modules 0 through n-1.
func ReadModules(store Store, prefix string, n int) []Sample {
	samples := make([]Sample, n)
	for i := range samples {
		samples[i] = ReadModule(store, prefix, i)
	}
	return samples
}

// WriteModule publishes a module reading.
func WriteModule(w Writer, prefix string, i int, angleDeg, velocityMPS float64) {
	w.SetDouble(ModuleAngleKey(prefix, i), angleDeg)
	w.SetDouble(ModuleVelocityKey(prefix, i), velocityMPS)
}

// ArmSample is the arm's raw reading for a frame.
type ArmSample struct {
	// PivotDeg is measured from level, positive above it.
	PivotDeg  float64
	Extension float64
	// Published is true when either arm entry exists. Robots without an arm publish neither.
	Published bool
}

// ReadArm reads the arm pivot and extension. Missing entries read as 0.
func ReadArm(store Store, prefix string) ArmSample {
	pivot, pivotOK := store.Double(ArmPivotKey(prefix))
	extension, extensionOK := store.Double(ArmExtensionKey(prefix))
	if !pivotOK {
		pivot = 0
	}
	if !extensionOK {
		extension = 0
	}
	return ArmSample{PivotDeg: pivot - 90, Extension: extension, Published: pivotOK || extensionOK}
}
