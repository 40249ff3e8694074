package tcserver

import "fmt"

type setValueCall struct {
	partner Partner
	element uint16
	ddi     uint16
	value   uint32
}

type subscribeCall struct {
	partner Partner
	element uint16
	ddi     uint16
	arg     uint32
}

// fakeTransport records every call instead of touching a real CAN stack.
type fakeTransport struct {
	setValues      []setValueCall
	onChange       []subscribeCall
	timeInterval   []subscribeCall
	failSetValue   bool
}

func (f *fakeTransport) SendSetValue(partner Partner, element uint16, ddi uint16, value uint32) error {
	if f.failSetValue {
		return fmt.Errorf("fake transport: send failed")
	}
	f.setValues = append(f.setValues, setValueCall{partner, element, ddi, value})
	return nil
}

func (f *fakeTransport) SubscribeOnChange(partner Partner, element uint16, ddi uint16, threshold uint32) error {
	f.onChange = append(f.onChange, subscribeCall{partner, element, ddi, threshold})
	return nil
}

func (f *fakeTransport) SubscribeTimeInterval(partner Partner, element uint16, ddi uint16, intervalMs uint32) error {
	f.timeInterval = append(f.timeInterval, subscribeCall{partner, element, ddi, intervalMs})
	return nil
}
