// USB armory Mk II support for tamago/arm
// https://github.com/usbarmory/tamago
//
// Copyright (c) WithSecure Corporation
// https://foundry.withsecure.com
//
// Use of this source code is governed by the license
// that can be found in the LICENSE file.

//go:build tamago && arm

package mk2

// PDControllerAddr is the I2C address of the SMU daughterboard's
// FUSB302-family USB-PD sink controller (the BUCX/BMPX/VMPX part
// numbers all share this address), grounded on the reference
// tcpcdriver/fusb302 controller's MPN table.
const PDControllerAddr = 0x22

const (
	pdRegSwitches0        = 0x02
	pdRegSwitches0MeasCC1 = 1 << 2
	pdRegSwitches0MeasCC2 = 1 << 3
	pdRegStatus0          = 0x40
	pdStatus0BCLvlMask    = 0x03
)

// CCMeasurerAdapter satisfies pd.CCMeasurer over the FUSB302-style
// controller's CC comparator mux: EnableMeasure selects which CC pin
// feeds the BC_LVL comparator, ReadLevel reports the last comparator
// result.
type CCMeasurerAdapter struct {
	Bus  I2CAdapter
	Addr uint8
}

// EnableMeasure implements pd.CCMeasurer. pin 0 selects CC1, any other
// value selects CC2, matching pd.Negotiator's ccPin convention.
func (a CCMeasurerAdapter) EnableMeasure(pin uint8) error {
	meas := uint8(pdRegSwitches0MeasCC2)
	if pin == 0 {
		meas = pdRegSwitches0MeasCC1
	}
	return a.Bus.Transfer(a.Addr, []byte{pdRegSwitches0, meas}, nil)
}

// ReadLevel implements pd.CCMeasurer, returning the comparator's 2-bit
// BC_LVL field from the status register.
func (a CCMeasurerAdapter) ReadLevel() (uint8, error) {
	out := make([]byte, 1)
	if err := a.Bus.Transfer(a.Addr, []byte{pdRegStatus0}, out); err != nil {
		return 0, err
	}
	return out[0] & pdStatus0BCLvlMask, nil
}

// Register map of the SMU daughterboard's I2C-attached analog front
// end: a purpose-built 4-channel DAC/ADC bridge driving the output
// stage's voltage and current setpoints and transistor enables, and
// reading back the measured output. No off-the-shelf part is named in
// the reference material for this function, so the layout follows the
// same small-register-file convention as CANBusAdapter's controller.
const (
	smuRegVoltageDAC = 0x00 // 2 bytes, little-endian DAC code
	smuRegCurrentDAC = 0x02 // 2 bytes, little-endian DAC code
	smuRegEnable     = 0x04 // 1 byte, bit0 = source enable, bit1 = sink enable
	smuRegVoltageADC = 0x05 // 2 bytes, little-endian ADC code
	smuRegCurrentADC = 0x07 // 2 bytes, little-endian ADC code
)

const (
	smuEnableSource = 1 << 0
	smuEnableSink   = 1 << 1
)

// SMUAnalogAddr is the I2C address of the SMU daughterboard's analog
// front end, sharing the bus with the PD controller the same way the
// CAN Adapter and Datalogger daughterboards share theirs with the PMIC.
const SMUAnalogAddr = 0x48

// AnalogAdapter satisfies smu.DACWriter and smu.ADCReader over the
// SMU daughterboard's analog front end.
type AnalogAdapter struct {
	Bus  I2CAdapter
	Addr uint8

	sourceOn, sinkOn bool
}

func (a *AnalogAdapter) writeReg16(reg uint8, v int32) error {
	return a.Bus.Transfer(a.Addr, []byte{reg, byte(v), byte(v >> 8)}, nil)
}

func (a *AnalogAdapter) readReg16(reg uint8) (int32, error) {
	out := make([]byte, 2)
	if err := a.Bus.Transfer(a.Addr, []byte{reg}, out); err != nil {
		return 0, err
	}
	return int32(uint16(out[0]) | uint16(out[1])<<8), nil
}

func (a *AnalogAdapter) writeEnable() error {
	var v uint8
	if a.sourceOn {
		v |= smuEnableSource
	}
	if a.sinkOn {
		v |= smuEnableSink
	}
	return a.Bus.Transfer(a.Addr, []byte{smuRegEnable, v}, nil)
}

// SetVoltageDAC implements smu.DACWriter.
func (a *AnalogAdapter) SetVoltageDAC(code int32) { a.writeReg16(smuRegVoltageDAC, code) }

// SetCurrentDAC implements smu.DACWriter.
func (a *AnalogAdapter) SetCurrentDAC(code int32) { a.writeReg16(smuRegCurrentDAC, code) }

// SetSourceEnable implements smu.DACWriter.
func (a *AnalogAdapter) SetSourceEnable(on bool) {
	a.sourceOn = on
	a.writeEnable()
}

// SetSinkEnable implements smu.DACWriter.
func (a *AnalogAdapter) SetSinkEnable(on bool) {
	a.sinkOn = on
	a.writeEnable()
}

// ReadVoltageCode implements smu.ADCReader.
func (a *AnalogAdapter) ReadVoltageCode() (int32, error) { return a.readReg16(smuRegVoltageADC) }

// ReadCurrentCode implements smu.ADCReader.
func (a *AnalogAdapter) ReadCurrentCode() (int32, error) { return a.readReg16(smuRegCurrentADC) }
