/*
Copyright © 2019 the atmcorr authors.
This file is part of atmcorr.

atmcorr is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

atmcorr is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with atmcorr.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package hash computes content hashes used to tag output files with the
// inputs they were produced from.
package hash

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"hash/fnv"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Sum returns a 128-bit FNV-1a hash of the given objects, in hexadecimal.
// Objects are gob-encoded; an object gob cannot encode (e.g. a nil
// pointer or a struct without exported fields) is hashed from its spew
// dump instead.
func Sum(objects ...interface{}) string {
	h := fnv.New128a()
	for _, o := range objects {
		// gob panics rather than failing on nil pointers.
		if v := reflect.ValueOf(o); o == nil || v.Kind() == reflect.Ptr && v.IsNil() {
			printer.Fprintf(h, "%#v", o)
			continue
		}
		var b bytes.Buffer
		if err := gob.NewEncoder(&b).Encode(o); err == nil {
			h.Write(b.Bytes())
			continue
		}
		printer.Fprintf(h, "%#v", o)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
