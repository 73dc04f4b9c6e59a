/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package control

import (
	"fmt"
)

// Bit layout of the NTP system status word, see http://doc.ntp.org/current-stable/decode.html#sys
const (
	statusWordMask = 0xffff

	eventMask = 0xff

	leapShift = 14
	leapMask  = 0x3

	syncSourceShift = 8
	syncSourceMask  = 0x3f
	// codes above this one are reserved and decode to SyncSourceUnknown
	syncSourceMaxKnown = 9
)

// enumMember describes single member of a closed enumeration
type enumMember[T ~uint8] struct {
	value       T
	id          string
	description string
}

// enumTable is a bidirectional index->member and id->member lookup.
// Tables are built once during package initialization and never modified.
type enumTable[T ~uint8] struct {
	byIndex map[int]enumMember[T]
	byID    map[string]enumMember[T]
}

func newEnumTable[T ~uint8](members ...enumMember[T]) *enumTable[T] {
	t := &enumTable[T]{
		byIndex: make(map[int]enumMember[T], len(members)),
		byID:    make(map[string]enumMember[T], len(members)),
	}
	for _, m := range members {
		if _, found := t.byIndex[int(m.value)]; found {
			panic(fmt.Sprintf("duplicate enum index %d", m.value))
		}
		if _, found := t.byID[m.id]; found {
			panic(fmt.Sprintf("duplicate enum id %q", m.id))
		}
		t.byIndex[int(m.value)] = m
		t.byID[m.id] = m
	}
	return t
}

func (t *enumTable[T]) fromIndex(i int) (T, bool) {
	m, found := t.byIndex[i]
	return m.value, found
}

func (t *enumTable[T]) fromID(id string) (T, bool) {
	m, found := t.byID[id]
	return m.value, found
}

func (t *enumTable[T]) member(v T) enumMember[T] {
	m, found := t.byIndex[int(v)]
	if !found {
		return enumMember[T]{value: v, id: "UNSUPPORTED", description: "unsupported value"}
	}
	return m
}

// EventCode is the system event code found in the low byte of the system status word
type EventCode uint8

// System event codes
const (
	EventUnspecified EventCode = iota
	EventFreqNotSet
	EventFreqSet
	EventSpikeDetect
	EventFreqMode
	EventClockSync
	EventRestart
	EventPanicStop
	EventNoSystemPeer
	EventLeapArmed
	EventLeapDisarmed
	EventLeapEvent
	EventClockStep
	EventKern
	EventTAI
	EventStaleLeapValues
	EventClockHop
	// EventUnknown is returned for every code without a defined meaning
	EventUnknown EventCode = 0xff
)

var eventCodes = newEnumTable(
	enumMember[EventCode]{EventUnspecified, "UNSPECIFIED", "unspecified event"},
	enumMember[EventCode]{EventFreqNotSet, "FREQ_NOT_SET", "frequency file not available"},
	enumMember[EventCode]{EventFreqSet, "FREQ_SET", "frequency set from frequency file"},
	enumMember[EventCode]{EventSpikeDetect, "SPIKE_DETECT", "spike detected"},
	enumMember[EventCode]{EventFreqMode, "FREQ_MODE", "initial frequency training mode"},
	enumMember[EventCode]{EventClockSync, "CLOCK_SYNC", "clock synchronized"},
	enumMember[EventCode]{EventRestart, "RESTART", "program restart"},
	enumMember[EventCode]{EventPanicStop, "PANIC_STOP", "clock error more than 600 seconds"},
	enumMember[EventCode]{EventNoSystemPeer, "NO_SYSTEM_PEER", "no system peer"},
	enumMember[EventCode]{EventLeapArmed, "LEAP_ARMED", "leap second armed from file or Autokey"},
	enumMember[EventCode]{EventLeapDisarmed, "LEAP_DISARMED", "leap second disarmed"},
	enumMember[EventCode]{EventLeapEvent, "LEAP_EVENT", "leap second event"},
	enumMember[EventCode]{EventClockStep, "CLOCK_STEP", "clock stepped"},
	enumMember[EventCode]{EventKern, "KERN", "kernel information message"},
	enumMember[EventCode]{EventTAI, "TAI", "leap second values updated from file"},
	enumMember[EventCode]{EventStaleLeapValues, "STALE_LEAP_VALUES", "new NIST leap seconds file needed"},
	enumMember[EventCode]{EventClockHop, "CLOCKHOP", "spurious clock hop suppressed"},
	enumMember[EventCode]{EventUnknown, "UNKNOWN", "unknown event"},
)

// EventCodeFromIndex returns EventCode with given index
func EventCodeFromIndex(i int) (EventCode, bool) { return eventCodes.fromIndex(i) }

// EventCodeFromID returns EventCode with given identifier
func EventCodeFromID(id string) (EventCode, bool) { return eventCodes.fromID(id) }

// Index returns numeric index of the event
func (e EventCode) Index() int { return int(e) }

// ID returns short identifier of the event
func (e EventCode) ID() string { return eventCodes.member(e).id }

// Description returns human-readable description of the event
func (e EventCode) Description() string { return eventCodes.member(e).description }

func (e EventCode) String() string { return e.ID() }

// LeapSecondMode is the leap indicator found in the two top bits of the system status word
type LeapSecondMode uint8

// Leap indicator values
const (
	LeapNone LeapSecondMode = iota
	LeapAddSecond
	LeapDeleteSecond
	LeapAlarm
)

var leapSecondModes = newEnumTable(
	enumMember[LeapSecondMode]{LeapNone, "NONE", "normal value for a synchronized clock"},
	enumMember[LeapSecondMode]{LeapAddSecond, "ADD_SECOND", "insert a leap second after 23:59:59 of the current day"},
	enumMember[LeapSecondMode]{LeapDeleteSecond, "DELETE_SECOND", "delete the second 23:59:59 of the current day"},
	enumMember[LeapSecondMode]{LeapAlarm, "ALARM", "the clock has never been synchronized"},
)

// LeapSecondModeFromIndex returns LeapSecondMode with given index
func LeapSecondModeFromIndex(i int) (LeapSecondMode, bool) { return leapSecondModes.fromIndex(i) }

// LeapSecondModeFromID returns LeapSecondMode with given identifier
func LeapSecondModeFromID(id string) (LeapSecondMode, bool) { return leapSecondModes.fromID(id) }

// Index returns numeric index of the leap mode
func (l LeapSecondMode) Index() int { return int(l) }

// ID returns short identifier of the leap mode
func (l LeapSecondMode) ID() string { return leapSecondModes.member(l).id }

// Description returns human-readable description of the leap mode
func (l LeapSecondMode) Description() string { return leapSecondModes.member(l).description }

func (l LeapSecondMode) String() string { return l.ID() }

// SynchronizationSource is the clock source found in bits 8-13 of the system status word
type SynchronizationSource uint8

// Synchronization sources
const (
	SyncSourceUnspec SynchronizationSource = iota
	SyncSourcePPS
	SyncSourceLFRadio
	SyncSourceHFRadio
	SyncSourceUHFRadio
	SyncSourceLocal
	SyncSourceNTP
	SyncSourceOther
	SyncSourceWristwatch
	SyncSourceTelephone
	// SyncSourceUnknown covers all reserved codes
	SyncSourceUnknown SynchronizationSource = 63
)

var syncSources = newEnumTable(
	enumMember[SynchronizationSource]{SyncSourceUnspec, "UNSPEC", "not yet synchronized"},
	enumMember[SynchronizationSource]{SyncSourcePPS, "PPS", "pulse-per-second signal"},
	enumMember[SynchronizationSource]{SyncSourceLFRadio, "LF_RADIO", "VLF, LF radio (WWVB, DCF77, etc.)"},
	enumMember[SynchronizationSource]{SyncSourceHFRadio, "HF_RADIO", "MF/HF radio (WWV, etc.)"},
	enumMember[SynchronizationSource]{SyncSourceUHFRadio, "UHF_RADIO", "VHF/UHF radio/satellite (GPS, Galileo, etc.)"},
	enumMember[SynchronizationSource]{SyncSourceLocal, "LOCAL", "local timecode (IRIG, LOCAL driver, etc.)"},
	enumMember[SynchronizationSource]{SyncSourceNTP, "NTP", "peer NTP server(s)"},
	enumMember[SynchronizationSource]{SyncSourceOther, "OTHER", "other (IEEE 1588, openntp, chrony, etc.)"},
	enumMember[SynchronizationSource]{SyncSourceWristwatch, "WRISTWATCH", "eyeball and wristwatch"},
	enumMember[SynchronizationSource]{SyncSourceTelephone, "TELEPHONE", "telephone modem"},
	enumMember[SynchronizationSource]{SyncSourceUnknown, "UNKNOWN", "unknown"},
)

// SynchronizationSourceFromIndex returns SynchronizationSource with given index
func SynchronizationSourceFromIndex(i int) (SynchronizationSource, bool) {
	return syncSources.fromIndex(i)
}

// SynchronizationSourceFromID returns SynchronizationSource with given identifier
func SynchronizationSourceFromID(id string) (SynchronizationSource, bool) {
	return syncSources.fromID(id)
}

// Index returns numeric index of the source
func (s SynchronizationSource) Index() int { return int(s) }

// ID returns short identifier of the source
func (s SynchronizationSource) ID() string { return syncSources.member(s).id }

// Description returns human-readable description of the source
func (s SynchronizationSource) Description() string { return syncSources.member(s).description }

func (s SynchronizationSource) String() string { return s.ID() }

// EventFromStatus extracts event code from the system status word.
// Codes without a defined meaning decode to EventUnknown.
func EventFromStatus(word int) EventCode {
	code := (word & statusWordMask) & eventMask
	e, found := eventCodes.fromIndex(code)
	if !found {
		return EventUnknown
	}
	return e
}

// LeapSecondModeFromStatus extracts leap indicator from the system status word
func LeapSecondModeFromStatus(word int) LeapSecondMode {
	return LeapSecondMode(((word & statusWordMask) >> leapShift) & leapMask)
}

// SynchronizationSourceFromStatus extracts clock source from the system status word.
// Reserved codes (10 and above) decode to SyncSourceUnknown.
func SynchronizationSourceFromStatus(word int) SynchronizationSource {
	source := ((word & statusWordMask) >> syncSourceShift) & syncSourceMask
	if source > syncSourceMaxKnown {
		return SyncSourceUnknown
	}
	return SynchronizationSource(source)
}

// SystemStatus is a decoded system status word
type SystemStatus struct {
	Word   uint16
	Event  EventCode
	Leap   LeapSecondMode
	Source SynchronizationSource
}

// DecodeStatusWord splits system status word into its three fields. It never fails.
func DecodeStatusWord(word int) SystemStatus {
	return SystemStatus{
		Word:   uint16(word & statusWordMask),
		Event:  EventFromStatus(word),
		Leap:   LeapSecondModeFromStatus(word),
		Source: SynchronizationSourceFromStatus(word),
	}
}

func (s SystemStatus) String() string {
	return fmt.Sprintf("status=%04x leap=%s source=%s event=%s", s.Word, s.Leap, s.Source, s.Event)
}
