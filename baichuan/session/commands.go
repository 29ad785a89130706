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

package session

import (
	"context"
	"fmt"

	"github.com/cybergarage/go-baichuan/baichuan/encoding/bcxml"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	baichuanerrors "github.com/cybergarage/go-baichuan/baichuan/errors"
	"github.com/cybergarage/go-baichuan/baichuan/types"
)

// request builds a request header for msgID with the session's default
// class and channel, sends payload (already XML-marshalled), and parses the
// reply's payload as BcXml.
func (s *Session) request(ctx context.Context, msgID types.MsgID, payload []byte) (*bcxml.BcXml, error) {
	h := message.NewHeader(
		message.WithHeaderMsgID(msgID),
		message.WithHeaderChannelID(s.channelID),
		message.WithHeaderMsgNum(s.conn.NextMsgNum()),
		message.WithHeaderClass(types.ClassModernWithOffsetA),
	)
	reply, err := s.conn.Request(ctx, message.NewBc(h, nil, payload))
	if err != nil {
		return nil, err
	}
	if len(reply.Payload) == 0 {
		return &bcxml.BcXml{}, nil
	}
	parsed, err := bcxml.Unmarshal(reply.Payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %s reply: %w", baichuanerrors.ErrCodec, msgID, err)
	}
	return parsed, nil
}

func marshalRequest(body *bcxml.BcXml) ([]byte, error) {
	payload, err := bcxml.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", baichuanerrors.ErrCodec, err)
	}
	return payload, nil
}

// Ping keeps the connection alive and measures liveness; the camera replies
// with an empty payload and response_code 200.
func (s *Session) Ping(ctx context.Context) error {
	_, err := s.request(ctx, types.MsgIDPing, nil)
	return err
}

// Version retrieves the camera's firmware and hardware identification.
func (s *Session) Version(ctx context.Context) (*bcxml.VersionInfo, error) {
	reply, err := s.request(ctx, types.MsgIDVersion, nil)
	if err != nil {
		return nil, err
	}
	if reply.VersionInfo == nil {
		return nil, baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDVersion), "expected VersionInfo")
	}
	return reply.VersionInfo, nil
}

// SubscribeMotion registers handler for unsolicited AlarmEventList pushes and
// asks the camera to start delivering them. The returned cancel function
// only stops local dispatch; it does not tell the camera to stop.
func (s *Session) SubscribeMotion(ctx context.Context, handler func(*bcxml.AlarmEventList)) (func(), error) {
	s.conn.Handle(types.MsgIDMotionEvent, func(bc *message.Bc) {
		if len(bc.Payload) == 0 {
			return
		}
		parsed, err := bcxml.Unmarshal(bc.Payload)
		if err != nil || parsed.AlarmEventList == nil {
			return
		}
		handler(parsed.AlarmEventList)
	})

	if _, err := s.request(ctx, types.MsgIDMotionRequest, nil); err != nil {
		return func() {}, err
	}
	return func() { s.conn.Handle(types.MsgIDMotionEvent, func(*message.Bc) {}) }, nil
}

// GetLED returns whether the status LED is currently on.
func (s *Session) GetLED(ctx context.Context) (*bcxml.LedState, error) {
	reply, err := s.request(ctx, types.MsgIDGetLEDStatus, nil)
	if err != nil {
		return nil, err
	}
	if reply.LedState == nil {
		return nil, baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDGetLEDStatus), "expected LedState")
	}
	return reply.LedState, nil
}

// SetLED turns the status LED on or off.
func (s *Session) SetLED(ctx context.Context, state *bcxml.LedState) error {
	payload, err := marshalRequest(&bcxml.BcXml{LedState: state})
	if err != nil {
		return err
	}
	_, err = s.request(ctx, types.MsgIDSetLEDStatus, payload)
	return err
}

// GetGeneral returns the camera's system clock and OSD settings.
func (s *Session) GetGeneral(ctx context.Context) (*bcxml.SystemGeneral, error) {
	reply, err := s.request(ctx, types.MsgIDGetGeneral, nil)
	if err != nil {
		return nil, err
	}
	if reply.SystemGeneral == nil {
		return nil, baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDGetGeneral), "expected SystemGeneral")
	}
	return reply.SystemGeneral, nil
}

// SetGeneral writes the camera's system clock and OSD settings.
func (s *Session) SetGeneral(ctx context.Context, general *bcxml.SystemGeneral) error {
	payload, err := marshalRequest(&bcxml.BcXml{SystemGeneral: general})
	if err != nil {
		return err
	}
	_, err = s.request(ctx, types.MsgIDSetGeneral, payload)
	return err
}

// GetPIR returns the PIR motion sensor's current configuration.
func (s *Session) GetPIR(ctx context.Context) (*bcxml.PirAlarm, error) {
	reply, err := s.request(ctx, types.MsgIDGetPIRAlarm, nil)
	if err != nil {
		return nil, err
	}
	if reply.PirAlarm == nil {
		return nil, baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDGetPIRAlarm), "expected AlarmPIRInfo")
	}
	return reply.PirAlarm, nil
}

// SetPIR writes the PIR motion sensor's configuration.
func (s *Session) SetPIR(ctx context.Context, pir *bcxml.PirAlarm) error {
	payload, err := marshalRequest(&bcxml.BcXml{PirAlarm: pir})
	if err != nil {
		return err
	}
	_, err = s.request(ctx, types.MsgIDSetPIRAlarm, payload)
	return err
}

// PtzControl issues one pan/tilt/zoom movement command.
func (s *Session) PtzControl(ctx context.Context, ptz *bcxml.PtzControl) error {
	ptz.Channel = int(s.channelID)
	payload, err := marshalRequest(&bcxml.BcXml{PtzControl: ptz})
	if err != nil {
		return err
	}
	_, err = s.request(ctx, types.MsgIDPtzControl, payload)
	return err
}

// Reboot asks the camera to restart. The connection should be expected to
// drop once the camera acts on this.
func (s *Session) Reboot(ctx context.Context) error {
	reply, err := s.request(ctx, types.MsgIDReboot, nil)
	if err != nil {
		return err
	}
	if reply.RebootRsp == nil {
		return baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDReboot), "expected RebootRsp")
	}
	return nil
}

// TalkAbility enumerates the audio codecs the camera accepts for two-way talk.
func (s *Session) TalkAbility(ctx context.Context) (*bcxml.TalkAbility, error) {
	reply, err := s.request(ctx, types.MsgIDTalkAbility, nil)
	if err != nil {
		return nil, err
	}
	if reply.TalkAbility == nil {
		return nil, baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDTalkAbility), "expected TalkAbility")
	}
	return reply.TalkAbility, nil
}

// StartTalk negotiates a two-way talk session with the requested codec and
// returns a function to send one frame of encoded audio; the camera expects
// binary audio frames under the same msg_num as the TalkConfig exchange.
func (s *Session) StartTalk(ctx context.Context, cfg *bcxml.TalkConfig) (func([]byte) error, func() error, error) {
	cfg.Channel = int(s.channelID)
	payload, err := marshalRequest(&bcxml.BcXml{TalkConfig: cfg})
	if err != nil {
		return nil, nil, err
	}

	msgNum := s.conn.NextMsgNum()
	h := message.NewHeader(
		message.WithHeaderMsgID(types.MsgIDTalkConfig),
		message.WithHeaderChannelID(s.channelID),
		message.WithHeaderMsgNum(msgNum),
		message.WithHeaderClass(types.ClassModernWithOffsetA),
	)
	if _, err := s.conn.Request(ctx, message.NewBc(h, nil, payload)); err != nil {
		return nil, nil, err
	}

	send := func(frame []byte) error {
		talkHeader := message.NewHeader(
			message.WithHeaderMsgID(types.MsgIDTalk),
			message.WithHeaderChannelID(s.channelID),
			message.WithHeaderMsgNum(msgNum),
			message.WithHeaderClass(types.ClassModernWithOffsetA),
		)
		return s.conn.Send(message.NewBc(talkHeader, &bcxml.Extension{BinaryData: intPtr(1)}, frame))
	}
	stop := func() error {
		h := message.NewHeader(
			message.WithHeaderMsgID(types.MsgIDTalkReset),
			message.WithHeaderChannelID(s.channelID),
			message.WithHeaderMsgNum(s.conn.NextMsgNum()),
			message.WithHeaderClass(types.ClassModernWithOffsetA),
		)
		return s.conn.Send(message.NewBc(h, nil, nil))
	}
	return send, stop, nil
}

// FloodlightStatus reports whether the floodlight is currently lit.
func (s *Session) FloodlightStatus(ctx context.Context) (*bcxml.FloodlightStatusList, error) {
	reply, err := s.request(ctx, types.MsgIDFloodlightStatusList, nil)
	if err != nil {
		return nil, err
	}
	if reply.FloodlightStatusList == nil {
		return nil, baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDFloodlightStatusList), "expected FloodlightStatusList")
	}
	return reply.FloodlightStatusList, nil
}

// FloodlightManual drives the floodlight on or off for duration seconds.
func (s *Session) FloodlightManual(ctx context.Context, status, durationSeconds int) error {
	payload, err := marshalRequest(&bcxml.BcXml{FloodlightManual: &bcxml.FloodlightManual{
		Channel:  int(s.channelID),
		Status:   status,
		Duration: durationSeconds,
	}})
	if err != nil {
		return err
	}
	_, err = s.request(ctx, types.MsgIDFloodlightManual, payload)
	return err
}

// FloodlightTasks returns the floodlight's scheduled on/off tasks.
func (s *Session) FloodlightTasks(ctx context.Context) (*bcxml.FloodlightTaskList, error) {
	reply, err := s.request(ctx, types.MsgIDFloodlightTasksRead, nil)
	if err != nil {
		return nil, err
	}
	if reply.FloodlightTaskList == nil {
		return nil, baichuanerrors.NewUnintelligibleReply(uint32(types.MsgIDFloodlightTasksRead), "expected FloodlightTaskList")
	}
	return reply.FloodlightTaskList, nil
}

// SetFloodlightTasks writes the floodlight's scheduled on/off tasks.
func (s *Session) SetFloodlightTasks(ctx context.Context, tasks *bcxml.FloodlightTaskList) error {
	payload, err := marshalRequest(&bcxml.BcXml{FloodlightTaskList: tasks})
	if err != nil {
		return err
	}
	_, err = s.request(ctx, types.MsgIDFloodlightTasksWrite, payload)
	return err
}

func intPtr(v int) *int { return &v }
