// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.17
//

package gorinex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeFileName(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		mjd     int
		want    string
	}{
		{name: "navigation", pattern: "KAOSDDD0.YYn", mjd: 60583, want: "KAOS2740.24n"},
		{name: "observation lower case", pattern: "siteddd0.yyo", mjd: 60583, want: "site2740.24o"},
		{name: "first day of year", pattern: "KAOSDDD0.YYN", mjd: 60310, want: "KAOS0010.24N"},
		{name: "prefix and suffix dropped", pattern: "/data/KAOSDDD0.YYO.Z", mjd: 51544, want: "KAOS0010.00O"},
		{name: "no match", pattern: "brdc.nav", mjd: 60583, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MakeFileName(tt.pattern, tt.mjd))
		})
	}
}
