package avb

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const bootInfo = `Footer version:           1.0
Image size:               67108864 bytes
Original image size:      25165824 bytes
VBMeta offset:            25165824
VBMeta size:              2112 bytes
--
Minimum libavb version:   1.0
Header Block:             256 bytes
Authentication Block:     576 bytes
Auxiliary Block:          1280 bytes
Public key (sha1):        ea410c1b46cdb2e40e526880ff383f083bd615d5
Algorithm:                SHA256_RSA4096
Rollback Index:           0
Flags:                    0
Rollback Index Location:  0
Release String:           'avbtool 1.1.0'
Descriptors:
    Hash descriptor:
      Image Size:            25165824 bytes
      Hash Algorithm:        sha256
      Partition Name:        boot
      Salt:                  9a9bd2a8e2ec5d2f6ea1a5a0ac1bf6e4
      Digest:                2c9b6df1b6b7e3a8e0d0c6de4e2d3c8d1f0a9b4c7e6d5f4a3b2c1d0e9f8a7b6c
      Flags:                 0
    Prop: com.android.build.boot.os_version -> '11'
    Prop: com.android.build.boot.fingerprint -> 'Unisoc/ums512_1h10/ums512_1h10:11/RP1A.201005.001/1234:user/release-keys'
`

func TestExtractFingerprint(t *testing.T) {
	for _, test := range []struct {
		desc    string
		info    string
		want    string
		wantErr bool
	}{
		{
			desc: "avbtool output",
			info: bootInfo,
			want: "Unisoc/ums512_1h10/ums512_1h10:11/RP1A.201005.001/1234:user/release-keys",
		}, {
			desc: "double quoted",
			info: `    Prop: com.android.build.boot.fingerprint -> "abc/def:11/user"`,
			want: "abc/def:11/user",
		}, {
			desc: "bracketed",
			info: `    Prop: com.android.build.boot.fingerprint -> ['abc/def:11/user']`,
			want: "abc/def:11/user",
		}, {
			desc: "brackets inside quotes",
			info: `    Prop: com.android.build.boot.fingerprint -> "[abc/def]"`,
			want: "abc/def",
		}, {
			desc: "first line wins",
			info: "Prop: com.android.build.boot.fingerprint -> 'first'\nProp: com.android.build.boot.fingerprint -> 'second'\n",
			want: "first",
		}, {
			desc:    "no property line",
			info:    "Prop: com.android.build.boot.os_version -> '11'\n",
			wantErr: true,
		}, {
			desc:    "unquoted value",
			info:    "Prop: com.android.build.boot.fingerprint -> abc\n",
			wantErr: true,
		}, {
			desc:    "empty value",
			info:    "Prop: com.android.build.boot.fingerprint -> '[]'\n",
			wantErr: true,
		}, {
			desc:    "empty input",
			wantErr: true,
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			got, err := ExtractFingerprint(test.info)
			if test.wantErr {
				if !errors.Is(err, ErrNoFingerprint) {
					t.Fatalf("ExtractFingerprint() = %q, %v; want ErrNoFingerprint", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractFingerprint(): %v", err)
			}
			if got != test.want {
				t.Errorf("got %q want %q", got, test.want)
			}
		})
	}
}

const vbmetaInfo = `Minimum libavb version:   1.0
Header Block:             256 bytes
Authentication Block:     1088 bytes
Auxiliary Block:          5056 bytes
Public key (sha1):        2597c218aae470a130f61162feaae70afd97f011
Algorithm:                SHA256_RSA4096
Rollback Index:           0
Flags:                    0
Rollback Index Location:  0
Release String:           'avbtool 1.1.0'
Descriptors:
    Chain Partition descriptor:
      Partition Name:          boot
      Rollback Index Location: 1
      Public key (sha1):       ea410c1b46cdb2e40e526880ff383f083bd615d5
    Chain Partition descriptor:
      Partition Name:          dtbo
      Rollback Index Location: 10
      Public key (sha1):       ea410c1b46cdb2e40e526880ff383f083bd615d5
    Chain Partition descriptor:
      Partition Name:          vbmeta_system
      Rollback Index Location: 3
      Public key (sha1):       5dd8a3f9f51e3e9c2c0a3a0d2d2b3b1a0f9e8d7c
    Hash descriptor:
      Image Size:            1048576 bytes
      Hash Algorithm:        sha256
      Partition Name:        l_modem
      Salt:                  00
      Digest:                ab
      Flags:                 0
`

func TestParseVBMeta(t *testing.T) {
	for _, test := range []struct {
		desc string
		info string
		want *VBMetaInfo
	}{
		{
			desc: "single block",
			info: "Partition Name: vbmeta\n  Rollback Index Location: 1\n  Public key (sha1): abcd1234",
			want: &VBMetaInfo{
				PartitionNames:  []string{"vbmeta"},
				RollbackIndices: map[string]uint64{"vbmeta": 1},
				PublicKeys:      map[string]string{"vbmeta": "abcd1234"},
			},
		}, {
			desc: "avbtool output",
			info: vbmetaInfo,
			want: &VBMetaInfo{
				Algorithm:       "SHA256_RSA4096",
				PartitionNames:  []string{"boot", "dtbo", "vbmeta_system"},
				RollbackIndices: map[string]uint64{"boot": 1, "dtbo": 10, "vbmeta_system": 3},
				PublicKeys: map[string]string{
					"boot":          "ea410c1b46cdb2e40e526880ff383f083bd615d5",
					"dtbo":          "ea410c1b46cdb2e40e526880ff383f083bd615d5",
					"vbmeta_system": "5dd8a3f9f51e3e9c2c0a3a0d2d2b3b1a0f9e8d7c",
				},
			},
		}, {
			desc: "no blocks",
			info: "Algorithm: NONE\nRollback Index: 0\n",
			want: &VBMetaInfo{
				Algorithm:       "NONE",
				PartitionNames:  []string{},
				RollbackIndices: map[string]uint64{},
				PublicKeys:      map[string]string{},
			},
		}, {
			desc: "empty input",
			want: &VBMetaInfo{
				PartitionNames:  []string{},
				RollbackIndices: map[string]uint64{},
				PublicKeys:      map[string]string{},
			},
		}, {
			desc: "incomplete block is ignored",
			info: "Partition Name: boot\n  Rollback Index Location: 1\nPartition Name: dtbo\n  Rollback Index Location: 2\n  Public key (sha1): 0f\n",
			want: &VBMetaInfo{
				PartitionNames:  []string{"dtbo"},
				RollbackIndices: map[string]uint64{"dtbo": 2},
				PublicKeys:      map[string]string{"dtbo": "0f"},
			},
		}, {
			desc: "duplicate keeps first",
			info: "Partition Name: boot\nRollback Index Location: 1\nPublic key (sha1): aa\n" +
				"Partition Name: boot\nRollback Index Location: 2\nPublic key (sha1): bb\n",
			want: &VBMetaInfo{
				PartitionNames:  []string{"boot"},
				RollbackIndices: map[string]uint64{"boot": 1},
				PublicKeys:      map[string]string{"boot": "aa"},
			},
		}, {
			desc: "path-like names are dropped",
			info: "Partition Name: ../x\nRollback Index Location: 1\nPublic key (sha1): aa\n" +
				"Partition Name: a/b\nRollback Index Location: 2\nPublic key (sha1): bb\n" +
				"Partition Name: vendor_boot\nRollback Index Location: 3\nPublic key (sha1): cc\n",
			want: &VBMetaInfo{
				PartitionNames:  []string{"vendor_boot"},
				RollbackIndices: map[string]uint64{"vendor_boot": 3},
				PublicKeys:      map[string]string{"vendor_boot": "cc"},
			},
		}, {
			desc: "crlf line endings",
			info: "Algorithm: SHA256_RSA2048\r\nPartition Name: boot\r\nRollback Index Location: 4\r\nPublic key (sha1): cafe\r\n",
			want: &VBMetaInfo{
				Algorithm:       "SHA256_RSA2048",
				PartitionNames:  []string{"boot"},
				RollbackIndices: map[string]uint64{"boot": 4},
				PublicKeys:      map[string]string{"boot": "cafe"},
			},
		},
	} {
		t.Run(test.desc, func(t *testing.T) {
			got := ParseVBMeta(test.info)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("ParseVBMeta() diff (-want +got):\n%s", diff)
			}
		})
	}
}
