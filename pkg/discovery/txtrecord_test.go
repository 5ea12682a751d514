package discovery

import (
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/enbility/zeroconf/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceTXTRoundTrip(t *testing.T) {
	info := &DeviceInfo{
		ID:      "a1b2c3",
		Name:    "Kitchen",
		Timers:  []string{"oven", "eggs"},
		Version: "1.0",
	}

	strs := TXTRecordsToStrings(EncodeDeviceTXT(info))
	assert.Equal(t, []string{"id=a1b2c3", "name=Kitchen", "timers=oven,eggs", "ver=1.0"}, strs)

	got, err := DecodeDeviceTXT(StringsToTXTRecords(strs))
	require.NoError(t, err)
	assert.Equal(t, info, got)
}

func TestDecodeDeviceTXTMissingID(t *testing.T) {
	_, err := DecodeDeviceTXT(TXTRecordMap{TXTKeyName: "x"})
	assert.True(t, errors.Is(err, ErrMissingRequired))
}

func TestEncodeDeviceTXTOmitsEmpty(t *testing.T) {
	txt := EncodeDeviceTXT(&DeviceInfo{ID: "only"})
	assert.Equal(t, TXTRecordMap{TXTKeyID: "only"}, txt)
}

func TestEncodeDeviceTXTTruncates(t *testing.T) {
	txt := EncodeDeviceTXT(&DeviceInfo{ID: "x", Name: strings.Repeat("n", 300)})
	assert.Len(t, txt[TXTKeyName], MaxTXTValueLen)
}

func TestStringsToTXTRecords(t *testing.T) {
	txt := StringsToTXTRecords([]string{"a=1", "flag", "", "b=x=y"})
	assert.Equal(t, TXTRecordMap{"a": "1", "flag": "", "b": "x=y"}, txt)
}

func TestInstanceName(t *testing.T) {
	tests := []struct {
		name string
		info DeviceInfo
		want string
	}{
		{"name wins", DeviceInfo{ID: "id", Name: "Kitchen"}, "Kitchen"},
		{"falls back to id", DeviceInfo{ID: "id"}, "id"},
		{"truncated", DeviceInfo{ID: "id", Name: strings.Repeat("k", 70)}, strings.Repeat("k", MaxInstanceNameLen)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.InstanceName())
		})
	}
}

func TestValidateInstanceName(t *testing.T) {
	assert.NoError(t, ValidateInstanceName("Kitchen Timer"))
	assert.ErrorIs(t, ValidateInstanceName(""), ErrInvalidName)
	assert.ErrorIs(t, ValidateInstanceName(strings.Repeat("x", 64)), ErrInvalidName)
	assert.ErrorIs(t, ValidateInstanceName("a\x00b"), ErrInvalidName)
}

func TestEntryToDevice(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "Kitchen", Service: ServiceType, Domain: Domain},
		HostName:      "kitchen.local.",
		Port:          6055,
		Text:          []string{"id=k1", "timers=oven"},
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
		AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
	}

	svc := entryToDevice(entry)
	require.NotNil(t, svc)
	assert.Equal(t, "Kitchen", svc.InstanceName)
	assert.Equal(t, "k1", svc.ID)
	assert.Equal(t, []string{"oven"}, svc.Timers)
	assert.Equal(t, []string{"192.168.1.20", "fe80::1"}, svc.Addresses)
	assert.Equal(t, "192.168.1.20:6055", svc.Address())

	entry.Text = []string{"name=stranger"}
	assert.Nil(t, entryToDevice(entry))
}

func TestAddressFallsBackToHost(t *testing.T) {
	svc := &DeviceService{Host: "kitchen.local.", Port: 6055}
	assert.Equal(t, "kitchen.local.:6055", svc.Address())
}

func TestMergeAndRemoveAddresses(t *testing.T) {
	addrs := mergeAddresses([]string{"10.0.0.1"}, []string{"10.0.0.1", "fe80::1"})
	assert.Equal(t, []string{"10.0.0.1", "fe80::1"}, addrs)

	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "x", Service: ServiceType, Domain: Domain},
		AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
	}
	assert.Equal(t, []string{"10.0.0.1"}, removeAddresses(addrs, entry))
}

func TestAdvertiserUpdateBeforeAdvertise(t *testing.T) {
	a := NewMDNSAdvertiser(DefaultAdvertiserConfig())
	assert.ErrorIs(t, a.Update(&DeviceInfo{ID: "x"}), ErrNotAdvertising)
	assert.NoError(t, a.Stop())
}
