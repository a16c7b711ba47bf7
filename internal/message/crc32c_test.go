package message

import "testing"

// zlibLicenseText is librdkafka's CRC32C test vector: the zlib license
// notice, used verbatim so the checksum matches the reference value.
const zlibLicenseText = `  This software is provided 'as-is', without any express or implied
  warranty.  In no event will the author be held liable for any damages
  arising from the use of this software.

  Permission is granted to anyone to use this software for any purpose,
  including commercial applications, and to alter it and redistribute it
  freely, subject to the following restrictions:

  1. The origin of this software must not be misrepresented; you must not
     claim that you wrote the original software. If you use this software
     in a product, an acknowledgment in the product documentation would be
     appreciated but is not required.
  2. Altered source versions must be plainly marked as such, and must not be
     misrepresented as being the original software.
  3. This notice may not be removed or altered from any source distribution.`

func TestChecksumCastagnoli_Vectors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want uint32
	}{
		{"empty", []byte(""), 0x00000000},
		{"a", []byte("a"), 0xC1D04330},
		{"long", []byte(zlibLicenseText), 0x7DCDE113},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ChecksumCastagnoli(tt.data); got != tt.want {
				t.Errorf("ChecksumCastagnoli(%q) = %#08x, want %#08x", tt.data, got, tt.want)
			}
		})
	}
}

func TestChecksumCastagnoli_PrefixesDiffer(t *testing.T) {
	data := []byte("the quick brown fox jumps over the lazy dog")
	seen := map[uint32]bool{}
	for i := 1; i <= len(data); i++ {
		crc := ChecksumCastagnoli(data[:i])
		if seen[crc] {
			t.Fatalf("prefix of length %d collided with a shorter prefix", i)
		}
		seen[crc] = true
	}
}
