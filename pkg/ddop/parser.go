package ddop

import (
	"encoding/binary"
	"fmt"
)

// Pool is the deserialised object tree of an uploaded DDOP, plus the index
// built during parsing that the task controller core needs to bind DDIs to
// element numbers without a second, quadratic pass over the tree.
type Pool struct {
	device       *Device
	elements     []*DeviceElement
	processData  []*DeviceProcessData
	properties   []*DeviceProperty
	parentOf     map[uint16]*DeviceElement // child object id -> parenting element
	elementByNum map[uint16]*DeviceElement
}

func (p *Pool) Device() *Device                  { return p.device }
func (p *Pool) Elements() []*DeviceElement        { return p.elements }
func (p *Pool) ProcessData() []*DeviceProcessData { return p.processData }
func (p *Pool) Properties() []*DeviceProperty     { return p.properties }

// ParentOf returns the DeviceElement whose child-id list contains objectID.
func (p *Pool) ParentOf(objectID uint16) (*DeviceElement, bool) {
	el, ok := p.parentOf[objectID]
	return el, ok
}

// ElementByNumber looks up an element by its on-bus element number.
func (p *Pool) ElementByNumber(number uint16) (*DeviceElement, bool) {
	el, ok := p.elementByNum[number]
	return el, ok
}

// Sections returns every DeviceElement of type Section, found anywhere in
// the tree (directly under a boom or a sub-boom alike).
func (p *Pool) Sections() []*DeviceElement {
	sections := make([]*DeviceElement, 0, len(p.elements))
	for _, el := range p.elements {
		if el.Type == ElementTypeSection {
			sections = append(sections, el)
		}
	}
	return sections
}

// CountSections is a convenience for len(Sections()), bounded per spec.md
// §3 to [0, 256] by the caller.
func (p *Pool) CountSections() int {
	return len(p.Sections())
}

// Parse deserialises a complete pool from its raw bytes. Concatenate
// uploaded chunks (spec.md §4.1 store_pool/activate_pool) before calling
// this; Parse itself makes a single pass.
func Parse(data []byte) (*Pool, error) {
	if len(data) == 0 {
		return nil, PoolErrorEmpty
	}

	pool := &Pool{
		parentOf:     make(map[uint16]*DeviceElement),
		elementByNum: make(map[uint16]*DeviceElement),
	}

	offset := 0
	for offset < len(data) {
		if offset+3 > len(data) {
			return nil, PoolErrorTruncated
		}
		objType := ObjectType(data[offset])
		objID := binary.LittleEndian.Uint16(data[offset+1 : offset+3])
		offset += 3

		var err error
		switch objType {
		case ObjectTypeDevice:
			offset, err = parseDevice(pool, data, offset, objID)
		case ObjectTypeDeviceElement:
			offset, err = parseDeviceElement(pool, data, offset, objID)
		case ObjectTypeProcessData:
			offset, err = parseProcessData(pool, data, offset, objID)
		case ObjectTypeProperty:
			offset, err = parseProperty(pool, data, offset, objID)
		case ObjectTypeValuePresent:
			offset, err = skipValuePresentation(data, offset)
		default:
			return nil, fmt.Errorf("ddop: object %d: %w", objID, PoolErrorUnknownObjectType)
		}
		if err != nil {
			return nil, err
		}
	}

	if err := pool.buildParentIndex(); err != nil {
		return nil, err
	}
	return pool, nil
}

func parseDevice(pool *Pool, data []byte, offset int, objID uint16) (int, error) {
	if offset+1 > len(data) {
		return 0, PoolErrorTruncated
	}
	length := int(data[offset])
	offset++
	if offset+length > len(data) {
		return 0, PoolErrorTruncated
	}
	pool.device = &Device{ObjectID: objID, Designator: string(data[offset : offset+length])}
	return offset + length, nil
}

func parseDeviceElement(pool *Pool, data []byte, offset int, objID uint16) (int, error) {
	if offset+7 > len(data) {
		return 0, PoolErrorTruncated
	}
	number := binary.LittleEndian.Uint16(data[offset : offset+2])
	elType := ElementType(data[offset+2])
	parent := binary.LittleEndian.Uint16(data[offset+3 : offset+5])
	childCount := binary.LittleEndian.Uint16(data[offset+5 : offset+7])
	offset += 7

	end := offset + int(childCount)*2
	if end > len(data) {
		return 0, PoolErrorTruncated
	}
	children := make([]uint16, childCount)
	for i := 0; i < int(childCount); i++ {
		children[i] = binary.LittleEndian.Uint16(data[offset+i*2 : offset+i*2+2])
	}

	el := &DeviceElement{
		ObjectID:       objID,
		Number:         number,
		Type:           elType,
		ParentObjectID: parent,
		ChildObjectIDs: children,
	}
	pool.elements = append(pool.elements, el)
	pool.elementByNum[number] = el
	return end, nil
}

func parseProcessData(pool *Pool, data []byte, offset int, objID uint16) (int, error) {
	if offset+3 > len(data) {
		return 0, PoolErrorTruncated
	}
	ddi := binary.LittleEndian.Uint16(data[offset : offset+2])
	triggers := data[offset+2]
	pool.processData = append(pool.processData, &DeviceProcessData{ObjectID: objID, DDI: ddi, Triggers: triggers})
	return offset + 3, nil
}

func parseProperty(pool *Pool, data []byte, offset int, objID uint16) (int, error) {
	if offset+6 > len(data) {
		return 0, PoolErrorTruncated
	}
	ddi := binary.LittleEndian.Uint16(data[offset : offset+2])
	value := int32(binary.LittleEndian.Uint32(data[offset+2 : offset+6]))
	pool.properties = append(pool.properties, &DeviceProperty{ObjectID: objID, DDI: ddi, Value: value})
	return offset + 6, nil
}

func skipValuePresentation(data []byte, offset int) (int, error) {
	if offset+1 > len(data) {
		return 0, PoolErrorTruncated
	}
	length := int(data[offset])
	offset++
	if offset+length > len(data) {
		return 0, PoolErrorTruncated
	}
	return offset + length, nil
}

// buildParentIndex is the single O(pool) walk spec.md §9 calls for: every
// element's declared children are indexed back to their parent, in one
// pass, instead of an O(pool²) nested scan.
func (p *Pool) buildParentIndex() error {
	for _, el := range p.elements {
		for _, childID := range el.ChildObjectIDs {
			p.parentOf[childID] = el
		}
	}
	return nil
}
