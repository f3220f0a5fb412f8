package display

import (
	"errors"
	"fmt"
	"image/color"
	"io"
	"io/fs"
	"log"
	"math/rand"
	"os"
	"path"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/sqweek/dialog"

	"github.com/meadori/nesmachine/controller"
	"github.com/meadori/nesmachine/machine"
	"github.com/meadori/nesmachine/ppu"
	"github.com/meadori/nesmachine/server"
	"github.com/meadori/nesmachine/slots"
	"github.com/meadori/nesmachine/wavrec"
)

const (
	screenScale   = 3
	bezelBorder   = 24
	menuBarHeight = 50
	hudHeight     = 150

	screenWidth  = ppu.Width * screenScale
	screenHeight = ppu.Height * screenScale
	windowWidth  = screenWidth + 2*bezelBorder
	windowHeight = menuBarHeight + screenHeight + 2*bezelBorder + hudHeight

	screenX = bezelBorder
	screenY = menuBarHeight + bezelBorder
)

// Options configures the optional parts of a Display.
type Options struct {
	// Server, if set, supplies remote input and queued remote commands.
	Server *server.GRPCServer
	// SlotsDir is where save states go. Empty disables save slots.
	SlotsDir string
	// Record, if set, receives the local input of player one as a replay
	// script.
	Record io.Writer
	// WAV, if set, receives every sample played.
	WAV *wavrec.Recorder
}

type menuButton struct {
	label  string
	x      float32
	action func(d *Display)
}

var menu = []menuButton{
	{"POWER", 60, (*Display).power},
	{"RESET", 150, (*Display).reset},
	{"LOAD", 240, (*Display).openDialog},
	{"CLOSE", 330, (*Display).closeGame},
	{"PAUSE", 420, (*Display).togglePause},
}

const (
	menuButtonWidth  = 80
	menuButtonTop    = 5
	menuButtonHeight = 40
)

// Display represents the emulator's display.
type Display struct {
	m    *machine.Machine
	host server.Host
	opts Options

	sound       *soundStream
	audioPlayer *audio.Player

	paused          bool
	quit            bool
	slot            int
	present         [slots.Count]bool
	message         string
	messageTimer    int
	resetBlinkTimer int

	// Recording fields
	recorder    *recorder
	currentMask byte

	romLoadChan chan string

	// UI Additions
	frameImage    *ebiten.Image
	framePix      []byte
	frameSeq      uint64
	staticImage   *ebiten.Image
	staticPix     []byte
	scanlineImage *ebiten.Image
	showTables    bool
	tableImages   [2]*ebiten.Image
}

// New creates a new Display instance driving m. romPath names the ROM
// already loaded into m, if any.
func New(m *machine.Machine, romPath string, opts Options) *Display {
	sound := newSoundStream(m.SampleRate())
	audioContext := audio.NewContext(m.SampleRate())
	player, err := audioContext.NewPlayer(sound)
	if err != nil {
		log.Printf("Error creating audio player: %v", err)
	} else {
		player.Play()
	}

	// CRT scanlines overlay, a dark line every other row
	scanImg := ebiten.NewImage(ppu.Width, ppu.Height)
	for y := 0; y < ppu.Height; y += 2 {
		vector.DrawFilledRect(scanImg, 0, float32(y), ppu.Width, 1, color.RGBA{0, 0, 0, 70}, false)
	}

	d := &Display{
		m:             m,
		host:          server.Host{Machine: m},
		opts:          opts,
		sound:         sound,
		audioPlayer:   player,
		romLoadChan:   make(chan string, 1),
		frameImage:    ebiten.NewImage(ppu.Width, ppu.Height),
		staticImage:   ebiten.NewImage(ppu.Width, ppu.Height),
		staticPix:     make([]byte, ppu.Width*ppu.Height*4),
		scanlineImage: scanImg,
		tableImages:   [2]*ebiten.Image{ebiten.NewImage(128, 128), ebiten.NewImage(128, 128)},
	}
	if opts.Record != nil {
		d.recorder = &recorder{w: opts.Record}
	}
	if !m.IsEmpty() {
		d.bindSlots(romPath)
	}
	return d
}

// Close flushes the input recording.
func (d *Display) Close() error {
	if d.recorder == nil {
		return nil
	}
	return d.recorder.flush()
}

func (d *Display) bindSlots(romPath string) {
	d.host.Slots = nil
	d.present = [slots.Count]bool{}
	if d.opts.SlotsDir == "" {
		return
	}
	d.host.Slots = slots.New(d.opts.SlotsDir, romPath)
	d.present = d.host.Slots.Present(d.m.CartridgeID())
}

func (d *Display) loadROM(romPath string) {
	rom, err := os.ReadFile(romPath)
	if err != nil {
		log.Printf("Error reading ROM: %v", err)
		d.notify("CANNOT READ ROM")
		return
	}
	d.start(romPath, rom)
}

// start inserts rom and powers it on. romPath names its save slots.
func (d *Display) start(romPath string, rom []byte) {
	if err := d.m.Load(rom); err != nil {
		log.Printf("Error loading ROM: %v", err)
		d.notify("UNSUPPORTED ROM")
		return
	}
	d.bindSlots(romPath)
	d.sound.reset()
	d.paused = false
}

var errNoROM = errors.New("no .nes file among the dropped files")

// droppedROM picks the first .nes file out of files dropped on the window.
func droppedROM(files fs.FS) (string, []byte, error) {
	entries, err := fs.ReadDir(files, ".")
	if err != nil {
		return "", nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".nes") {
			continue
		}
		rom, err := fs.ReadFile(files, e.Name())
		return e.Name(), rom, err
	}
	return "", nil, errNoROM
}

func (d *Display) loadDropped(files fs.FS) {
	name, rom, err := droppedROM(files)
	if err != nil {
		log.Printf("Error reading dropped ROM: %v", err)
		d.notify("DROP A .NES FILE")
		return
	}
	d.start(name, rom)
}

func (d *Display) notify(msg string) {
	d.message = msg
	d.messageTimer = 120
}

func (d *Display) power() {
	d.quit = true
}

func (d *Display) reset() {
	if err := d.m.Reset(); err != nil {
		return
	}
	d.sound.reset()
	d.resetBlinkTimer = 30 // half a second
}

func (d *Display) openDialog() {
	go func() {
		filename, err := dialog.File().Filter("NES ROM", "nes").Load()
		if err != nil {
			if err != dialog.ErrCancelled {
				log.Println(err)
			}
			return
		}
		d.romLoadChan <- filename
	}()
}

func (d *Display) closeGame() {
	d.m.Unload()
	d.bindSlots("")
	d.sound.reset()
	d.paused = false
}

func (d *Display) togglePause() {
	if d.m.IsEmpty() {
		return
	}
	d.paused = !d.paused
	if !d.paused {
		d.m.DrainAudioSamples()
		d.sound.reset()
	}
}

func (d *Display) saveSlot() {
	if err := d.host.SaveSlot(d.slot); err != nil {
		log.Printf("Error saving slot %d: %v", d.slot, err)
		d.notify("SAVE FAILED")
		return
	}
	d.present[d.slot] = true
	d.notify(fmt.Sprintf("SAVED SLOT %d", d.slot))
}

func (d *Display) loadSlot() {
	if err := d.host.LoadSlot(d.slot); err != nil {
		log.Printf("Error loading slot %d: %v", d.slot, err)
		d.notify("LOAD FAILED")
		return
	}
	d.sound.reset()
	d.notify(fmt.Sprintf("LOADED SLOT %d", d.slot))
}

var slotKeys = [slots.Count]ebiten.Key{
	ebiten.KeyDigit0, ebiten.KeyDigit1, ebiten.KeyDigit2, ebiten.KeyDigit3, ebiten.KeyDigit4,
	ebiten.KeyDigit5, ebiten.KeyDigit6, ebiten.KeyDigit7, ebiten.KeyDigit8, ebiten.KeyDigit9,
}

var padKeys = [...]struct {
	key    ebiten.Key
	button controller.Button
}{
	{ebiten.KeyZ, controller.A},
	{ebiten.KeyX, controller.B},
	{ebiten.KeyShift, controller.Select},
	{ebiten.KeyEnter, controller.Start},
	{ebiten.KeyArrowUp, controller.Up},
	{ebiten.KeyArrowDown, controller.Down},
	{ebiten.KeyArrowLeft, controller.Left},
	{ebiten.KeyArrowRight, controller.Right},
}

func (d *Display) handleMouse() {
	if !inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		return
	}
	cx, cy := ebiten.CursorPosition()
	x, y := float32(cx), float32(cy)
	if y < menuButtonTop || y > menuButtonTop+menuButtonHeight {
		return
	}
	for _, b := range menu {
		if x >= b.x && x <= b.x+menuButtonWidth {
			b.action(d)
			return
		}
	}
}

func (d *Display) handleKeys() {
	for n, k := range slotKeys {
		if inpututil.IsKeyJustPressed(k) {
			d.slot = n
		}
	}
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		d.saveSlot()
	case inpututil.IsKeyJustPressed(ebiten.KeyF9):
		d.loadSlot()
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		d.togglePause()
	case inpututil.IsKeyJustPressed(ebiten.KeyF12):
		d.reset()
	case inpututil.IsKeyJustPressed(ebiten.KeyO):
		d.openDialog()
	case inpututil.IsKeyJustPressed(ebiten.KeyTab):
		d.showTables = !d.showTables
	}
}

func localMask() byte {
	var mask byte
	for _, pk := range padKeys {
		if ebiten.IsKeyPressed(pk.key) {
			mask |= 1 << pk.button
		}
	}
	return mask
}

// Update proceeds the game state.
// Update is called every tick (1/60 [s] by default).
func (d *Display) Update() error {
	// Check if a ROM was selected via the async dialog
	select {
	case filename := <-d.romLoadChan:
		d.loadROM(filename)
	default:
	}
	if files := ebiten.DroppedFiles(); files != nil {
		d.loadDropped(files)
	}

	d.handleMouse()
	d.handleKeys()
	if d.quit {
		return ebiten.Termination
	}

	if d.resetBlinkTimer > 0 {
		d.resetBlinkTimer--
	}
	if d.messageTimer > 0 {
		d.messageTimer--
	}

	// Logical OR of local input and remote network input
	local := localMask()
	var remote [machine.Ports]byte
	if srv := d.opts.Server; srv != nil {
		srv.RunPending(d.host)
		for port := range remote {
			remote[port] = srv.Buttons(port)
		}
	}
	d.m.SetButtons(0, local|remote[0])
	d.m.SetButtons(1, remote[1])
	d.currentMask = local | remote[0]

	if d.m.IsEmpty() {
		d.updateStatic()
		return nil
	}
	if d.isPaused() {
		return nil
	}

	if d.recorder != nil {
		d.recorder.frame(local)
	}
	d.m.StepFrame()
	samples := d.m.DrainAudioSamples()
	d.sound.push(samples)
	if d.opts.WAV != nil {
		if err := d.opts.WAV.Write(samples); err != nil {
			log.Printf("Error recording audio: %v", err)
			d.opts.WAV = nil
		}
	}
	return nil
}

func (d *Display) isPaused() bool {
	return d.paused || (d.opts.Server != nil && d.opts.Server.Paused())
}

// updateStatic fills the TV with noise while no cartridge is inserted.
func (d *Display) updateStatic() {
	for i := 0; i < len(d.staticPix); i += 4 {
		val := byte(rand.Intn(256))
		d.staticPix[i] = val
		d.staticPix[i+1] = val
		d.staticPix[i+2] = val
		d.staticPix[i+3] = 255
	}
	d.staticImage.WritePixels(d.staticPix)
}

// Draw draws the game screen.
// Draw is called every frame (typically 1/60[s] for 60Hz display).
func (d *Display) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{60, 60, 60, 255})

	// TV bezel
	vector.DrawFilledRect(screen, 0, menuBarHeight, windowWidth, screenHeight+2*bezelBorder, color.RGBA{25, 25, 25, 255}, false)

	var rawScreen *ebiten.Image
	if d.m.IsEmpty() {
		rawScreen = d.staticImage
	} else {
		fb := d.m.Frame()
		if seq := fb.Sequence(); seq != d.frameSeq {
			d.framePix = fb.Snapshot(d.framePix)
			d.frameImage.WritePixels(d.framePix)
			d.frameSeq = seq
		}
		rawScreen = d.frameImage
	}

	opGame := &ebiten.DrawImageOptions{}
	opGame.GeoM.Scale(screenScale, screenScale)
	opGame.GeoM.Translate(screenX, screenY)
	screen.DrawImage(rawScreen, opGame)
	screen.DrawImage(d.scanlineImage, opGame)

	if d.isPaused() && !d.m.IsEmpty() {
		vector.DrawFilledRect(screen, screenX, screenY, screenWidth, screenHeight, color.RGBA{0, 0, 0, 120}, false)
		drawLabel(screen, "PAUSED", screenX+screenWidth/2-54, screenY+screenHeight/2-16, 3, color.RGBA{255, 255, 255, 255})
	}

	if d.showTables && !d.m.IsEmpty() {
		d.drawPatternTables(screen)
	}

	d.drawControllerHUD(screen)
	d.drawSlots(screen)
	if d.messageTimer > 0 {
		drawLabel(screen, d.message, screenX+8, screenY+8, 2, color.RGBA{255, 255, 0, 255})
	}
	d.drawMenu(screen)
}

func (d *Display) drawMenu(screen *ebiten.Image) {
	// Light-grey chassis with a dark stripe below it
	vector.DrawFilledRect(screen, 0, 0, windowWidth, menuBarHeight, color.RGBA{190, 190, 190, 255}, false)
	vector.DrawFilledRect(screen, 0, menuBarHeight, windowWidth, 4, color.RGBA{40, 40, 40, 255}, false)

	cx, cy := ebiten.CursorPosition()
	mouseX, mouseY := float32(cx), float32(cy)
	isMouseDown := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	// Power LED, blinking while a reset is shown
	ledX, ledY := float32(30), float32(25)
	vector.DrawFilledRect(screen, ledX-10, ledY-10, 20, 20, color.RGBA{30, 30, 30, 255}, false)
	if d.m.IsEmpty() {
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{100, 0, 0, 255}, false)
	} else if d.resetBlinkTimer == 0 || (d.resetBlinkTimer/4)%2 == 0 {
		vector.DrawFilledCircle(screen, ledX, ledY, 8, color.RGBA{200, 0, 0, 80}, false)
		vector.DrawFilledCircle(screen, ledX, ledY, 5, color.RGBA{255, 0, 0, 180}, false)
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{255, 100, 100, 255}, false)
	} else {
		vector.DrawFilledCircle(screen, ledX, ledY, 3, color.RGBA{100, 0, 0, 255}, false)
	}

	for _, b := range menu {
		label := b.label
		if label == "PAUSE" && d.paused {
			label = "PLAY"
		}
		hover := mouseX >= b.x && mouseX <= b.x+menuButtonWidth &&
			mouseY >= menuButtonTop && mouseY <= menuButtonTop+menuButtonHeight
		drawNESButton(screen, label, b.x, menuButtonTop, menuButtonWidth, menuButtonHeight, hover, hover && isMouseDown)
	}

	logoText := "NESMACHINE"
	logoImg := ebiten.NewImage(len(logoText)*6, 16)
	ebitenutil.DebugPrintAt(logoImg, logoText, 0, 0)
	logOp := &ebiten.DrawImageOptions{}
	logOp.GeoM.Scale(2.5, 2.5)
	logOp.GeoM.Skew(-0.15, 0)
	logOp.GeoM.Translate(530, 4)
	logOp.ColorScale.ScaleWithColor(color.RGBA{220, 50, 50, 255})
	screen.DrawImage(logoImg, logOp)
}

// drawPatternTables overlays both CHR pattern tables, drawn with the
// first background palette, on the lower half of the TV.
func (d *Display) drawPatternTables(screen *ebiten.Image) {
	p := d.m.Bus().PPU
	for i, img := range d.tableImages {
		img.WritePixels(p.PatternTable(i, 0).Pix)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Scale(2, 2)
		op.GeoM.Translate(float64(screenX+16+i*(256+16)), float64(screenY+screenHeight-256-16))
		screen.DrawImage(img, op)
	}
}

func drawLabel(screen *ebiten.Image, s string, x, y float32, scale float64, clr color.Color) {
	img := ebiten.NewImage(len(s)*6, 16)
	ebitenutil.DebugPrintAt(img, s, 0, 0)
	op := &ebiten.DrawImageOptions{}
	op.GeoM.Scale(scale, scale)
	op.GeoM.Translate(float64(x), float64(y))
	op.ColorScale.ScaleWithColor(clr)
	screen.DrawImage(img, op)
}

func drawNESButton(screen *ebiten.Image, textStr string, x, y, w, h float32, isHovered, isPressed bool) {
	baseColor := color.RGBA{70, 70, 70, 255}
	lightColor := color.RGBA{120, 120, 120, 255}
	darkColor := color.RGBA{40, 40, 40, 255}

	if isHovered {
		baseColor = color.RGBA{85, 85, 85, 255}
		lightColor = color.RGBA{140, 140, 140, 255}
	}
	if isPressed {
		// inverted bevel
		lightColor, darkColor = darkColor, lightColor
	}

	vector.DrawFilledRect(screen, x, y, w, h, baseColor, false)

	borderSize := float32(4)
	vector.DrawFilledRect(screen, x, y, w, borderSize, lightColor, false)
	vector.DrawFilledRect(screen, x, y, borderSize, h, lightColor, false)
	vector.DrawFilledRect(screen, x, y+h-borderSize, w, borderSize, darkColor, false)
	vector.DrawFilledRect(screen, x+w-borderSize, y, borderSize, h, darkColor, false)

	// Center the text, with a slight downward offset for the debug font
	textW := float32(len(textStr) * 6 * 2)
	textH := float32(16 * 2)
	textX := x + (w-textW)/2
	textY := y + (h-textH)/2 + 4
	if isPressed {
		textX += 2
		textY += 2
	}
	drawLabel(screen, textStr, textX, textY, 2, color.RGBA{220, 50, 50, 255})
}

// drawSlots shows the selected save slot and which slots hold a state.
func (d *Display) drawSlots(screen *ebiten.Image) {
	if d.host.Slots == nil {
		return
	}
	y := float32(windowHeight - 28)
	drawLabel(screen, "SLOT", 20, y, 1.5, color.RGBA{220, 220, 220, 255})
	for n := range d.present {
		x := float32(70 + n*22)
		clr := color.RGBA{40, 40, 40, 255}
		if d.present[n] {
			clr = color.RGBA{0, 160, 0, 255}
		}
		if n == d.slot {
			vector.DrawFilledRect(screen, x-2, y-2, 20, 20, color.RGBA{220, 50, 50, 255}, false)
		}
		vector.DrawFilledRect(screen, x, y, 16, 16, clr, false)
		drawLabel(screen, fmt.Sprint(n), x+5, y, 1, color.RGBA{255, 255, 255, 255})
	}
}

// Layout takes the outside size (e.g., the window size) and returns the (logical) screen size.
func (d *Display) Layout(outsideWidth, outsideHeight int) (int, int) {
	return windowWidth, windowHeight
}

func WindowWidth() int {
	return windowWidth
}

func WindowHeight() int {
	return windowHeight
}

// drawControllerHUD draws a live NES controller below the TV screen that lights up when buttons are pressed.
func (d *Display) drawControllerHUD(screen *ebiten.Image) {
	pressed := func(b controller.Button) bool { return d.currentMask&(1<<b) != 0 }

	hudWidth, hudBody := float32(300), float32(110)
	x := float32(windowWidth)/2 - hudWidth/2
	y := float32(menuBarHeight+screenHeight+2*bezelBorder) + 8

	vector.DrawFilledRect(screen, x, y, hudWidth, hudBody, color.RGBA{180, 180, 180, 255}, false)
	vector.DrawFilledRect(screen, x+20, y+hudBody/2-10, hudWidth-40, 20, color.RGBA{30, 30, 30, 255}, false)

	dpadX, dpadY := x+55, y+55
	dpadColor := color.RGBA{20, 20, 20, 255}
	hlColor := color.RGBA{130, 130, 130, 255}

	vector.DrawFilledRect(screen, dpadX-12, dpadY-35, 24, 70, dpadColor, false)
	vector.DrawFilledRect(screen, dpadX-35, dpadY-12, 70, 24, dpadColor, false)

	if pressed(controller.Up) {
		vector.DrawFilledRect(screen, dpadX-12, dpadY-35, 24, 25, hlColor, false)
	}
	if pressed(controller.Down) {
		vector.DrawFilledRect(screen, dpadX-12, dpadY+10, 24, 25, hlColor, false)
	}
	if pressed(controller.Left) {
		vector.DrawFilledRect(screen, dpadX-35, dpadY-12, 25, 24, hlColor, false)
	}
	if pressed(controller.Right) {
		vector.DrawFilledRect(screen, dpadX+10, dpadY-12, 25, 24, hlColor, false)
	}

	selColor, startColor := color.RGBA{30, 30, 30, 255}, color.RGBA{30, 30, 30, 255}
	if pressed(controller.Select) {
		selColor = hlColor
	}
	if pressed(controller.Start) {
		startColor = hlColor
	}
	vector.DrawFilledRect(screen, x+120, y+60, 35, 12, selColor, false)
	vector.DrawFilledRect(screen, x+170, y+60, 35, 12, startColor, false)

	bColor, aColor := color.RGBA{200, 0, 0, 255}, color.RGBA{200, 0, 0, 255}
	btnHlColor := color.RGBA{255, 100, 100, 255}
	if pressed(controller.B) {
		bColor = btnHlColor
	}
	if pressed(controller.A) {
		aColor = btnHlColor
	}
	// A sits higher than B
	vector.DrawFilledCircle(screen, x+230, y+70, 18, bColor, false)
	vector.DrawFilledCircle(screen, x+275, y+60, 18, aColor, false)
}
