package discovery

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeDeviceTXT creates the TXT records for a device.
func EncodeDeviceTXT(info *DeviceInfo) TXTRecordMap {
	txt := TXTRecordMap{TXTKeyID: info.ID}
	if info.Name != "" {
		txt[TXTKeyName] = truncate(info.Name)
	}
	if len(info.Timers) > 0 {
		txt[TXTKeyTimers] = truncate(strings.Join(info.Timers, ","))
	}
	if info.Version != "" {
		txt[TXTKeyVersion] = info.Version
	}
	return txt
}

// DecodeDeviceTXT parses device TXT records.
func DecodeDeviceTXT(txt TXTRecordMap) (*DeviceInfo, error) {
	id, ok := txt[TXTKeyID]
	if !ok || id == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyID)
	}
	info := &DeviceInfo{
		ID:      id,
		Name:    txt[TXTKeyName],
		Version: txt[TXTKeyVersion],
	}
	if timers := txt[TXTKeyTimers]; timers != "" {
		info.Timers = strings.Split(timers, ",")
	}
	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to "key=value" strings,
// sorted by key.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	keys := make([]string, 0, len(txt))
	for k := range txt {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]string, 0, len(txt))
	for _, k := range keys {
		result = append(result, k+"="+txt[k])
	}
	return result
}

// StringsToTXTRecords parses "key=value" strings into a TXTRecordMap.
// A bare key maps to "".
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		if s == "" {
			continue
		}
		k, v, _ := strings.Cut(s, "=")
		txt[k] = v
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty", ErrInvalidName)
	case len(name) > MaxInstanceNameLen:
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidName, MaxInstanceNameLen)
	case strings.ContainsAny(name, "\x00"):
		return fmt.Errorf("%w: contains NUL", ErrInvalidName)
	}
	return nil
}

func truncate(s string) string {
	if len(s) > MaxTXTValueLen {
		return s[:MaxTXTValueLen]
	}
	return s
}

func joinHostPort(host string, port uint16) string {
	return net.JoinHostPort(host, strconv.Itoa(int(port)))
}
