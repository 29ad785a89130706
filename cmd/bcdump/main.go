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

/*
bcdump is a dump utility for the Baichuan (BC) camera protocol.

	NAME
	bcdump

	SYNOPSIS
	bcdump [-media] FILE

	bcdump decodes a captured BC message stream (or, with -media, a raw
	BcMedia stream) and prints one line per decoded unit to stdout.

	RETURN VALUE
	  Return EXIT_SUCCESS or EXIT_FAILURE
*/
package main

import (
	"flag"
	"io"
	"os"

	"github.com/cybergarage/go-baichuan/baichuan/encoding/media"
	"github.com/cybergarage/go-baichuan/baichuan/encoding/message"
	"github.com/cybergarage/go-baichuan/baichuan/types"
	"github.com/cybergarage/go-logger/log"
)

func main() {
	log.SetSharedLogger(log.NewStdoutLogger(log.LevelInfo))

	mediaMode := flag.Bool("media", false, "decode a raw BcMedia stream instead of a BC message stream")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Errorf("usage: bcdump [-media] FILE")
		os.Exit(1)
	}

	f, err := os.Open(flag.Arg(0))
	if err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}
	defer f.Close()

	if *mediaMode {
		dumpMedia(f)
		return
	}
	dumpMessages(f)
}

func dumpMessages(r io.Reader) {
	ctx := message.NewContext("", types.EncryptionNone)
	for {
		bc, err := message.Decode(r, ctx)
		if err != nil {
			if err != io.EOF {
				log.Warnf("%s", err)
			}
			return
		}
		log.Infof("%s", bc.Header)
	}
}

func dumpMedia(r io.Reader) {
	dec := media.NewDecoder(r)
	for {
		m, err := dec.Next()
		if err != nil {
			if err != io.EOF {
				log.Warnf("%s", err)
			}
			return
		}
		log.Infof("%s", m)
	}
}
