// Package devicemanager implements the Device Manager (C5): managed-UUID
// derivation, the dual-keyed device registry, and the Added/Removed
// broadcast.
package devicemanager

import (
	"fmt"

	"github.com/google/uuid"
)

// rootUUID is the fixed root of the three-level v5 derivation chain
// (root → vendor → product → serial). It must never change without
// invalidating every previously-derived managed device identity.
var rootUUID = uuid.MustParse("0e042ba4-82f1-4531-bd35-b455efebc627")

// USBIdentity is the (vendor, product, serial) triple a managed UUID is
// derived from. An absent serial is the empty string.
type USBIdentity struct {
	VendorID  uint16
	ProductID uint16
	Serial    string
}

// ManagedUUID deterministically derives the managed device identifier from
// id. Identical (VendorID, ProductID, Serial) always yields the same UUID,
// independent of transport-level USB bus/address, which can change across
// replugs.
func ManagedUUID(id USBIdentity) uuid.UUID {
	vendorUUID := uuid.NewSHA1(rootUUID, []byte(fmt.Sprintf("%04x", id.VendorID)))
	productUUID := uuid.NewSHA1(vendorUUID, []byte(fmt.Sprintf("%04x", id.ProductID)))
	return uuid.NewSHA1(productUUID, []byte(id.Serial))
}
