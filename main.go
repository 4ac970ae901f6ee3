package main

import (
	"flag"
	"log"
	"os"
	"runtime"
	"time"

	"GPU_renderbase/renderer"
)

var (
	width      = flag.Int("width", int(renderer.WINDOW_WIDTH), "initial window width")
	height     = flag.Int("height", int(renderer.WINDOW_HEIGHT), "initial window height")
	validation = flag.Bool("validation", true, "enable VK_LAYER_KHRONOS_validation")
	frames     = flag.Int("frames", 0, "stop after this many frames, 0 runs until the window is closed")
)

func init() {
	// SDL and Vulkan calls have to stay on the main thread
	runtime.LockOSThread()
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.SetOutput(os.Stdout)
	log.Printf("Starting %s", renderer.PROGRAM_NAME)
	log.Printf("Using GoLang: [%s]", runtime.Version())
}

func onDraw(elapsed time.Duration, c *renderer.Core) {
	c.ClearColor = renderer.PulseColor(elapsed)
}

func main() {
	flag.Parse()
	if *width <= 0 || *height <= 0 {
		log.Fatalf("Window size must be positive, got %dx%d", *width, *height)
	}

	core := renderer.NewCore(renderer.PROGRAM_NAME, int32(*width), int32(*height), *validation)
	err := core.Loop(*frames, onDraw)
	if err != nil {
		log.Printf("Render loop stopped: %v", err)
	}
	log.Printf("Swap chain was built %d times", core.SwapChainGeneration())
	core.Destroy()
	if err != nil {
		os.Exit(1)
	}
}
