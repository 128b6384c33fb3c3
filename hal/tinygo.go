//go:build tinygo && baremetal && (rp2040 || rp2350)

package hal

import (
	"machine"

	"tinygo.org/x/drivers/waveshare-epd/epd2in66b"
)

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	gpio   GPIO
	panel  Panel
	flash  Flash
	net    Network
	sleep  Sleeper
}

// New returns a Pico HAL wired to a Waveshare Pico e-Paper 2.66" (B) module.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1.
// Panel: SPI1 SCK=GP10 SDO=GP11, CS=GP9 DC=GP8 RST=GP12 BUSY=GP13.
// Wake button: GP15 to ground.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	machine.SPI1.Configure(machine.SPIConfig{
		Frequency: epd2in66b.Baudrate,
		SCK:       machine.GP10,
		SDO:       machine.GP11,
		Mode:      0,
	})

	return &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		led:    &pinLED{pin: ledPin},
		gpio:   newVirtualGPIO([]GPIOPin{newMachinePin("WAKE", machine.GP15)}),
		panel:  newEPDPanel(machine.SPI1, machine.GP9, machine.GP8, machine.GP12, machine.GP13),
		flash:  newRP2Flash(),
		net:    nullNetwork{},
		sleep:  resetSleeper{},
	}
}

func (h *tinyGoHAL) Logger() Logger     { return h.logger }
func (h *tinyGoHAL) LED() LED           { return h.led }
func (h *tinyGoHAL) GPIO() GPIO         { return h.gpio }
func (h *tinyGoHAL) Panel() Panel       { return h.panel }
func (h *tinyGoHAL) Flash() Flash       { return h.flash }
func (h *tinyGoHAL) Network() Network   { return h.net }
func (h *tinyGoHAL) Sleeper() Sleeper   { return h.sleep }
