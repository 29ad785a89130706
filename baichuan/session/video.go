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
	"io"

	"github.com/cybergarage/go-baichuan/baichuan/encoding/bcxml"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/media"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	"github.com/cybergarage/go-baichuan/baichuan/types"
	"github.com/cybergarage/go-logger/log"
)

// bcReplyReader adapts a Subscribe channel of successive replies sharing one
// msg_num into an io.Reader over their concatenated payload bytes, the shape
// media.NewDecoder expects.
type bcReplyReader struct {
	ch      <-chan *message.Bc
	pending []byte
}

func (r *bcReplyReader) Read(p []byte) (int, error) {
	for len(r.pending) == 0 {
		bc, ok := <-r.ch
		if !ok {
			return 0, io.EOF
		}
		r.pending = bc.Payload
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

// StartVideo requests a video stream on streamType and returns a channel
// delivering decoded BcMedia frames. The returned stop function asks the
// camera to stop the stream and unsubscribes locally. The frame channel is
// closed when decoding fails, or when ctx is cancelled while a frame is
// waiting to be delivered; neither stop nor the end of the connection
// closes it.
func (s *Session) StartVideo(ctx context.Context, streamType types.StreamType) (<-chan *media.Media, func() error, error) {
	msgNum := s.conn.NextMsgNum()

	replyCh, cancel := s.conn.Subscribe(msgNum, 64)

	payload, err := marshalRequest(&bcxml.BcXml{Preview: &bcxml.Preview{
		Channel:    int(s.channelID),
		Handle:     0,
		StreamType: streamTypeName(streamType),
	}})
	if err != nil {
		cancel()
		return nil, nil, err
	}

	h := message.NewHeader(
		message.WithHeaderMsgID(types.MsgIDVideo),
		message.WithHeaderChannelID(s.channelID),
		message.WithHeaderMsgNum(msgNum),
		message.WithHeaderClass(types.ClassModernWithOffsetA),
	)
	if err := s.conn.Send(message.NewBc(h, nil, payload)); err != nil {
		cancel()
		return nil, nil, err
	}

	frames := make(chan *media.Media, 8)
	decoder := media.NewDecoder(&bcReplyReader{ch: replyCh})

	go func() {
		defer close(frames)
		for {
			frame, err := decoder.Next()
			if err != nil {
				if err != io.EOF {
					log.Warnf("session: video stream decode stopped: %v", err)
				}
				return
			}
			select {
			case frames <- frame:
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func() error {
		defer cancel()
		stopHeader := message.NewHeader(
			message.WithHeaderMsgID(types.MsgIDVideoStop),
			message.WithHeaderChannelID(s.channelID),
			message.WithHeaderMsgNum(s.conn.NextMsgNum()),
			message.WithHeaderClass(types.ClassModernWithOffsetA),
		)
		return s.conn.Send(message.NewBc(stopHeader, nil, nil))
	}

	return frames, stop, nil
}

func streamTypeName(t types.StreamType) string {
	if t == types.StreamSub {
		return "sub"
	}
	return "main"
}
