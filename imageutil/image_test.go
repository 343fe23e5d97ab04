package imageutil

import (
	"image"
	"os"
	"path/filepath"
	"testing"
)

func TestNewRGBAImage(t *testing.T) {
	img := NewRGBAImage(100, 50)
	if img.Width() != 100 {
		t.Errorf("Expected width 100, got %d", img.Width())
	}
	if img.Height() != 50 {
		t.Errorf("Expected height 50, got %d", img.Height())
	}
}

func TestRGBAImageGetSetRGB(t *testing.T) {
	img := NewRGBAImage(10, 10)
	c := RGB{R: 100, G: 150, B: 200}
	img.SetRGB(5, 5, c)

	got := img.GetRGB(5, 5)
	if got != c {
		t.Errorf("Expected %v, got %v", c, got)
	}
	if a := img.RGBAAt(5, 5).A; a != 255 {
		t.Errorf("Expected opaque pixel, got alpha %d", a)
	}
}

func TestGrayscaleToRGBA(t *testing.T) {
	gray := NewGrayImage(3, 2)
	gray.Pix[1*gray.Stride+2] = 77

	rgba := GrayscaleToRGBA(gray)
	if got := rgba.GetRGB(2, 1); got != (RGB{R: 77, G: 77, B: 77}) {
		t.Errorf("Expected {77 77 77}, got %v", got)
	}
	if got := rgba.GetRGB(0, 0); got != (RGB{}) {
		t.Errorf("Expected black, got %v", got)
	}
}

func TestRGBAImageFromImageRebasesOrigin(t *testing.T) {
	src := CreateColorGradientImage(20, 20)
	sub := src.SubImage(src.Bounds().Inset(5)).(*image.RGBA)

	converted := RGBAImageFromImage(sub)
	if converted.Bounds().Min.X != 0 || converted.Bounds().Min.Y != 0 {
		t.Fatalf("Expected origin (0,0), got %v", converted.Bounds().Min)
	}
	if converted.Width() != 10 || converted.Height() != 10 {
		t.Fatalf("Expected 10x10, got %dx%d", converted.Width(), converted.Height())
	}
	if converted.GetRGB(0, 0) != src.GetRGB(5, 5) {
		t.Errorf("Expected %v at origin, got %v", src.GetRGB(5, 5), converted.GetRGB(0, 0))
	}
}

func TestResizeNearestKeepsSamples(t *testing.T) {
	img := CreateCheckerboardImage(4, 4, 1)

	resized := Resize(img, 8, 8, InterpolationNearest)
	if resized.Width() != 8 || resized.Height() != 8 {
		t.Fatalf("Expected 8x8, got %dx%d", resized.Width(), resized.Height())
	}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got, want := resized.GetRGB(x, y), img.GetRGB(x/2, y/2); got != want {
				t.Fatalf("Nearest upscale changed (%d,%d): %v != %v", x, y, got, want)
			}
		}
	}
}

func TestResizeToWidth(t *testing.T) {
	img := CreateGradientImage(200, 100)
	resized := ResizeToWidth(img, 50, InterpolationArea)
	if resized.Width() != 50 || resized.Height() != 25 {
		t.Errorf("Expected 50x25, got %dx%d", resized.Width(), resized.Height())
	}

	wide := CreateGradientImage(400, 1)
	thin := ResizeToWidth(wide, 10, InterpolationNearest)
	if thin.Height() != 1 {
		t.Errorf("Expected height clamped to 1, got %d", thin.Height())
	}
}

func TestLoadSaveImage(t *testing.T) {
	tmpDir := t.TempDir()
	img := CreateColorGradientImage(64, 48)

	// Lossless formats must round trip exactly.
	for _, ext := range []string{".png", ".bmp", ".tiff", ".gif"} {
		path := filepath.Join(tmpDir, "test"+ext)
		if err := SaveImage(img.RGBA, path); err != nil {
			t.Fatalf("Failed to save %s: %v", ext, err)
		}
		loaded, err := LoadImage(path)
		if err != nil {
			t.Fatalf("Failed to load %s: %v", ext, err)
		}
		if ext == ".gif" {
			// GIF quantizes to a 256 colour palette.
			if loaded.Width() != 64 || loaded.Height() != 48 {
				t.Errorf("GIF changed size: %dx%d", loaded.Width(), loaded.Height())
			}
			continue
		}
		if mse := CalculateMSE(img, loaded); mse != 0 {
			t.Errorf("%s should be lossless, MSE=%f", ext, mse)
		}
	}

	// JPEG is lossy but close at high quality.
	jpgPath := filepath.Join(tmpDir, "test.jpg")
	if err := SaveImageQuality(img.RGBA, jpgPath, 100); err != nil {
		t.Fatalf("Failed to save JPEG: %v", err)
	}
	loaded, err := LoadImage(jpgPath)
	if err != nil {
		t.Fatalf("Failed to load JPEG: %v", err)
	}
	if diff := CalculateMaxDiff(img, loaded); diff > 32 {
		t.Errorf("JPEG at quality 100 differs by %d", diff)
	}
}

func TestLoadGrayImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gray.png")
	gray := NewGrayImage(4, 4)
	gray.Pix[2*gray.Stride+3] = 200
	if err := SavePNG(gray.Gray, path); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}

	loaded, err := LoadGrayImage(path)
	if err != nil {
		t.Fatalf("LoadGrayImage: %v", err)
	}
	if v := loaded.GrayAt(3, 2).Y; v != 200 {
		t.Errorf("Expected 200, got %d", v)
	}
}

func TestLoadImageErrors(t *testing.T) {
	if _, err := LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "garbage.png")
	if err := os.WriteFile(path, []byte("not an image"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadImage(path); err == nil {
		t.Error("Expected decode error")
	}
}

func TestCalculateMSE(t *testing.T) {
	img1 := CreateSolidImage(10, 10, RGB{R: 0, G: 0, B: 0})
	img2 := CreateSolidImage(10, 10, RGB{R: 10, G: 10, B: 10})

	if mse := CalculateMSE(img1, img1); mse != 0 {
		t.Errorf("Identical images should have MSE=0, got %f", mse)
	}
	if mse := CalculateMSE(img1, img2); mse != 100.0 {
		t.Errorf("Expected MSE=100, got %f", mse)
	}
	if diff := CalculateMaxDiff(img1, img2); diff != 10 {
		t.Errorf("Expected max diff 10, got %d", diff)
	}
}

func TestCreateNoiseImageDeterministic(t *testing.T) {
	a := CreateNoiseImage(16, 16, 42)
	b := CreateNoiseImage(16, 16, 42)
	if CalculateMSE(a, b) != 0 {
		t.Error("Same seed should produce the same image")
	}
	c := CreateNoiseImage(16, 16, 43)
	if CalculateMSE(a, c) == 0 {
		t.Error("Different seeds should produce different images")
	}
}

// TestSaveTestImages saves test images to testdata directory for visual inspection.
// Run with: SAVE_TEST_IMAGES=1 go test -run TestSaveTestImages -v
func TestSaveTestImages(t *testing.T) {
	if os.Getenv("SAVE_TEST_IMAGES") != "1" {
		t.Skip("Set SAVE_TEST_IMAGES=1 to generate test images")
	}

	testdataDir := "../testdata"
	os.MkdirAll(testdataDir, 0755)

	SaveImage(CreateGradientImage(256, 256).RGBA, filepath.Join(testdataDir, "gradient.png"))
	SaveImage(CreateColorGradientImage(256, 256).RGBA, filepath.Join(testdataDir, "colorgradient.png"))
	SaveImage(CreateCheckerboardImage(256, 256, 32).RGBA, filepath.Join(testdataDir, "checkerboard.png"))
	SaveImage(CreateNoiseImage(256, 256, 1).RGBA, filepath.Join(testdataDir, "noise.png"))

	t.Log("Test images saved to testdata/")
}
