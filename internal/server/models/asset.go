package models

// FileAsset references a stored object. ID is the object key and the only
// durable field; URL and ThumbURL are filled per response by signing.
type FileAsset struct {
	ID       string `json:"id"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
	ThumbURL string `json:"thumbUrl,omitempty"`
}

// SignableAssets makes a bare FileAsset signable on its own.
func (f *FileAsset) SignableAssets() []*FileAsset {
	if f == nil {
		return nil
	}
	return []*FileAsset{f}
}

func (f *FileAsset) SignableChildren() []Signable { return nil }

// Signable is implemented by every response payload that carries asset
// references. SignableAssets returns the references held directly by the
// value, SignableChildren the nested values that may hold more.
type Signable interface {
	SignableAssets() []*FileAsset
	SignableChildren() []Signable
}

// Attachments is embedded by records exposing "images" and "file" collections.
type Attachments struct {
	Images []*FileAsset `json:"images,omitempty"`
	File   []*FileAsset `json:"file,omitempty"`
}

func (a *Attachments) SignableAssets() []*FileAsset {
	if a == nil {
		return nil
	}
	out := make([]*FileAsset, 0, len(a.Images)+len(a.File))
	out = append(out, a.Images...)
	out = append(out, a.File...)
	return out
}

func (a *Attachments) SignableChildren() []Signable { return nil }

// SignableList adapts a slice of records to Signable so a sequence can be
// nested inside another record.
type SignableList[T Signable] []T

func (l SignableList[T]) SignableAssets() []*FileAsset { return nil }

func (l SignableList[T]) SignableChildren() []Signable {
	out := make([]Signable, 0, len(l))
	for _, v := range l {
		out = append(out, v)
	}
	return out
}
