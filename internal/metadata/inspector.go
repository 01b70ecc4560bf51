package metadata

import (
	"reflect"
	"strings"
	"time"
	"unicode"

	"dsrsales/internal/core/id"
	"dsrsales/internal/core/types"
)

var (
	idType    = reflect.TypeOf(id.ID{})
	timeType  = reflect.TypeOf(time.Time{})
	moneyType = reflect.TypeOf(types.Money{})
)

// Inspect derives field definitions from the exported fields of a model struct.
// Embedded structs are flattened and fields tagged json:"-" are skipped.
func Inspect(entity any) []FieldDef {
	t := reflect.TypeOf(entity)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	fields := make([]FieldDef, 0, t.NumField())
	inspectStruct(t, &fields)
	return fields
}

func inspectStruct(t reflect.Type, fields *[]FieldDef) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		if field.PkgPath != "" { // unexported
			continue
		}

		if field.Anonymous {
			ft := field.Type
			if ft.Kind() == reflect.Ptr {
				ft = ft.Elem()
			}
			inspectStruct(ft, fields)
			continue
		}

		name := jsonName(field)
		if name == "-" {
			continue
		}

		fDef := FieldDef{
			Name:     name,
			Label:    guessLabel(field.Name),
			ReadOnly: isReadOnly(field),
		}
		mapFieldType(&fDef, field)
		*fields = append(*fields, fDef)
	}
}

func mapFieldType(def *FieldDef, field reflect.StructField) {
	t := field.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	switch t {
	case idType:
		def.Type = TypeReference
		// "ProductID" -> "product"; AssignedTo / AddedBy point at users.
		switch {
		case field.Name == "ID":
			def.ReferenceType = ""
		case strings.HasSuffix(field.Name, "ID"):
			def.ReferenceType = strings.ToLower(strings.TrimSuffix(field.Name, "ID"))
		default:
			def.ReferenceType = "user"
		}
		return
	case timeType:
		def.Type = TypeDate
		return
	case moneyType:
		def.Type = TypeMoney
		def.Scale = 2
		return
	}

	switch t.Kind() {
	case reflect.String:
		def.Type = TypeString
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		def.Type = TypeInteger
	case reflect.Float32, reflect.Float64:
		def.Type = TypeNumber
		def.Scale = 2
	case reflect.Bool:
		def.Type = TypeBoolean
	default:
		def.Type = TypeString
	}
}

func jsonName(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("json"); ok {
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			return parts[0]
		}
	}
	runes := []rune(field.Name)
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func isReadOnly(field reflect.StructField) bool {
	switch field.Name {
	case "ID", "CreatedAt", "CreatedOn", "UpdatedAt", "Version":
		return true
	}
	return false
}

// guessLabel splits CamelCase: "ModelSKU" -> "Model SKU".
func guessLabel(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
