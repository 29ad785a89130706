// Copyright (C) 2026 The go-baichuan Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package bcxml implements the BcXml payload schema: a closed union of
// optional elements, one per BC command, serialized with the standard
// library's encoding/xml rather than a third-party XML library.
package bcxml

import "encoding/xml"

// BcXml is the top-level BC payload document. Only one element is populated
// per message in practice, but the camera's own encoder happily includes
// several, so every field is an optional pointer and unknown child elements
// are ignored rather than rejected.
type BcXml struct {
	XMLName xml.Name `xml:"body"`

	Encryption     *Encryption     `xml:"Encryption,omitempty"`
	LoginUser      *LoginUser      `xml:"LoginUser,omitempty"`
	LoginNet       *LoginNet       `xml:"LoginNet,omitempty"`
	DeviceInfo     *DeviceInfo     `xml:"DeviceInfo,omitempty"`
	VersionInfo    *VersionInfo    `xml:"VersionInfo,omitempty"`
	Preview        *Preview        `xml:"Preview,omitempty"`
	SystemGeneral  *SystemGeneral  `xml:"SystemGeneral,omitempty"`
	LedState       *LedState       `xml:"LedState,omitempty"`
	AlarmEventList *AlarmEventList `xml:"AlarmEventList,omitempty"`
	PirAlarm       *PirAlarm       `xml:"AlarmPIRInfo,omitempty"`

	TalkConfig *TalkConfig `xml:"TalkConfig,omitempty"`
	TalkAbility *TalkAbility `xml:"TalkAbility,omitempty"`

	PtzControl *PtzControl `xml:"PtzControl,omitempty"`

	FloodlightStatusList *FloodlightStatusList `xml:"FloodlightStatusList,omitempty"`
	FloodlightManual     *FloodlightManual     `xml:"FloodlightManual,omitempty"`
	FloodlightTaskList   *FloodlightTaskList   `xml:"FloodlightTaskList,omitempty"`

	// RebootRsp acknowledges a reboot request; it carries no fields
	// of interest but its presence confirms the command landed.
	RebootRsp *struct{} `xml:"RebootRsp,omitempty"`
}

// Marshal serializes x to its XML wire form, including the declaration the
// camera's own encoder emits.
func Marshal(x *BcXml) ([]byte, error) {
	body, err := xml.Marshal(x)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// Unmarshal parses a BcXml document, tolerating unknown elements by design
// of encoding/xml (fields with no matching tag are simply left zero).
func Unmarshal(data []byte) (*BcXml, error) {
	x := &BcXml{}
	if err := xml.Unmarshal(data, x); err != nil {
		return nil, err
	}
	return x, nil
}

// Encryption carries the nonce the camera issues on a modern login reply.
type Encryption struct {
	Nonce        string `xml:"nonce"`
	LoginType    string `xml:"loginType,omitempty"`
}

// LoginUser is the modern login request's credential element.
type LoginUser struct {
	UserName    string `xml:"userName"`
	Password    string `xml:"password"`
	UserVer     int    `xml:"userVer,omitempty"`
}

// LoginNet is the modern login request's transport-preference element.
type LoginNet struct {
	Type    string `xml:"type"`
	UDPPort int    `xml:"udpPort,omitempty"`
}

// DeviceInfo is the login reply's device identity element.
type DeviceInfo struct {
	FirmwareVersion string `xml:"firmwareVersion,omitempty"`
	DeviceType      string `xml:"deviceType,omitempty"`
	SerialNumber    string `xml:"serialNumber,omitempty"`
}

// VersionInfo answers a Version command.
type VersionInfo struct {
	Name             string `xml:"name,omitempty"`
	SerialNumber     string `xml:"serialNumber,omitempty"`
	BuildDate        string `xml:"buildDate,omitempty"`
	HardwareVersion  string `xml:"hardwareVersion,omitempty"`
	FirmwareVersion  string `xml:"firmwareVersion,omitempty"`
}

// Preview requests the start of a video stream.
type Preview struct {
	Channel    int    `xml:"channelId"`
	Handle     int    `xml:"handle"`
	StreamType string `xml:"streamType"`
}

// SystemGeneral is the general device settings element (Get/SetGeneral).
type SystemGeneral struct {
	TimeZone   int    `xml:"timeZone,omitempty"`
	Year       int    `xml:"year,omitempty"`
	Month      int    `xml:"month,omitempty"`
	Day        int    `xml:"day,omitempty"`
	Hour       int    `xml:"hour,omitempty"`
	Minute     int    `xml:"minute,omitempty"`
	Second     int    `xml:"second,omitempty"`
	OSDFormat  string `xml:"osdFormat,omitempty"`
	Language   string `xml:"language,omitempty"`
}

// LedState is the status LED element (Get/SetLED).
type LedState struct {
	State       string `xml:"state"`
	LedVersion  int    `xml:"ledVersion,omitempty"`
}

// PirAlarm is the PIR motion-sensor element (Get/SetPIR).
type PirAlarm struct {
	Enable    int `xml:"enable"`
	Sensitivity int `xml:"sensitivity,omitempty"`
}

// AlarmEventList carries one or more motion events delivered unsolicited.
type AlarmEventList struct {
	Events []AlarmEvent `xml:"AlarmEvent"`
}

// AlarmEvent is a single motion detection occurrence.
type AlarmEvent struct {
	Channel int `xml:"channelId"`
	Status  int `xml:"status"`
}

// TalkConfig negotiates the audio codec for a two-way talk session.
type TalkConfig struct {
	Channel   int    `xml:"channelId"`
	Codec     string `xml:"audioType"`
	SampleRate int   `xml:"sampleRate,omitempty"`
}

// TalkAbility enumerates the codecs the camera can decode for talk.
type TalkAbility struct {
	Codecs []string `xml:"audioType"`
}

// PtzControl issues a pan/tilt/zoom movement.
type PtzControl struct {
	Channel int    `xml:"channelId"`
	Command string `xml:"command"`
	Speed   int    `xml:"speed,omitempty"`
}

// FloodlightStatusList reports whether the floodlight is currently lit.
type FloodlightStatusList struct {
	Statuses []FloodlightStatus `xml:"status"`
}

// FloodlightStatus is one channel's floodlight state.
type FloodlightStatus struct {
	Channel int `xml:"channelId"`
	Status  int `xml:"status"`
}

// FloodlightManual drives the floodlight on for a duration.
type FloodlightManual struct {
	Channel  int `xml:"channelId"`
	Status   int `xml:"status"`
	Duration int `xml:"duration,omitempty"`
}

// FloodlightTaskList carries the floodlight's scheduled on/off tasks.
type FloodlightTaskList struct {
	Tasks []FloodlightTask `xml:"task"`
}

// FloodlightTask is a single scheduled floodlight activation.
type FloodlightTask struct {
	Channel  int `xml:"channelId"`
	BeginHour int `xml:"beginHour"`
	EndHour   int `xml:"endHour"`
}
