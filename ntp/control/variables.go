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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NormalizeData turns bytes that contain kv ASCII string info a map[string]string
func NormalizeData(data []byte) (map[string]string, error) {
	result := map[string]string{}
	pairs := strings.Split(string(data), ",")
	for _, pair := range pairs {
		split := strings.Split(pair, "=")
		if len(split) != 2 {
			log.Debugf("WARNING: Malformed variables, bad k=v pair '%s'", pair)
			continue
		}
		k := strings.TrimSpace(split[0])
		v := strings.TrimSpace(strings.Trim(split[1], `"`))
		result[k] = v
	}
	if len(result) == 0 {
		return result, errors.Errorf("Malformed variables, no k=v pairs decoded")
	}
	return result, nil
}

// ParseStatusWord parses status word as printed by ntpq: hexadecimal, with or without 0x prefix
func ParseStatusWord(s string) (int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, errors.Errorf("empty status word")
	}
	w, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, errors.Errorf("bad status word %q: %v", s, err)
	}
	return int(w), nil
}
