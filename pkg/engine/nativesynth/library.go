// Package nativesynth wraps the dynamically-loaded "worldline" WORLD
// synthesis library: an opaque per-phrase handle that accepts queued
// sample+timing requests and f0/expression curves and yields mono PCM at
// 44100 Hz. The library is loaded at runtime via purego (no cgo), matching
// its C ABI of an opaque handle plus flat structs of raw pointers and
// lengths.
package nativesynth

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// candidateNames lists the shared-library file names to probe for, in
// order, for the current OS.
func candidateNames() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"worldline.dll"}
	case "darwin":
		return []string{"libworldline.dylib", "worldline.dylib"}
	default:
		return []string{"libworldline.so", "worldline.so"}
	}
}

// Library holds the loaded worldline shared object and its bound function
// pointers. A Library is safe to share across goroutines; the [Handle]
// values it creates are not.
type Library struct {
	handle uintptr
	logger *slog.Logger

	newFn        func() uintptr
	deleteFn     func(uintptr)
	addRequestFn func(handle, req uintptr, posMs, skipMs, lengthMs, fadeInMs, fadeOutMs float64, cb uintptr)
	setCurvesFn  func(handle, f0, gender, tension, breathiness, voicing uintptr, length int32, cb uintptr)
	synthFn      func(handle uintptr, y uintptr, cb uintptr) int32

	logCallback uintptr
}

// Load searches for the worldline library next to the running executable,
// then its parent directory (the layout a development build produces),
// and finally the OS's default search path.
func Load(logger *slog.Logger) (*Library, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dirs, err := executableDirs()
	if err != nil {
		return nil, fmt.Errorf("nativesynth: locating executable: %w", err)
	}

	var handle uintptr
	var loadErr error
	for _, dir := range dirs {
		for _, name := range candidateNames() {
			path := name
			if dir != "" {
				path = filepath.Join(dir, name)
			}
			h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
			if err == nil {
				handle = h
				loadErr = nil
				break
			}
			loadErr = err
		}
		if handle != 0 {
			break
		}
	}
	if handle == 0 {
		return nil, fmt.Errorf("nativesynth: could not load worldline library: %w", loadErr)
	}

	lib := &Library{handle: handle, logger: logger}
	purego.RegisterLibFunc(&lib.newFn, handle, "PhraseSynthNew")
	purego.RegisterLibFunc(&lib.deleteFn, handle, "PhraseSynthDelete")
	purego.RegisterLibFunc(&lib.addRequestFn, handle, "PhraseSynthAddRequest")
	purego.RegisterLibFunc(&lib.setCurvesFn, handle, "PhraseSynthSetCurves")
	purego.RegisterLibFunc(&lib.synthFn, handle, "PhraseSynthSynth")

	lib.logCallback = purego.NewCallback(func(msg *byte) {
		lib.logger.Info("worldline", "message", cString(msg))
	})

	return lib, nil
}

func executableDirs() ([]string, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(exe)
	return []string{dir, filepath.Dir(dir), ""}, nil
}

// cString copies a NUL-terminated C string into a Go string.
func cString(p *byte) string {
	if p == nil {
		return ""
	}
	base := unsafe.Pointer(p)
	n := 0
	for *(*byte)(unsafe.Pointer(uintptr(base) + uintptr(n))) != 0 {
		n++
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = *(*byte)(unsafe.Pointer(uintptr(base) + uintptr(i)))
	}
	return string(out)
}
