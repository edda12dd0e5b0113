package dicos

// HasElement returns true if the dataset contains the specified element.
func HasElement(ds *Dataset, t Tag) bool {
	_, ok := ds.FindElement(t.Group, t.Element)
	return ok
}

// DeleteElement removes an element from the dataset.
func DeleteElement(ds *Dataset, t Tag) {
	delete(ds.Elements, t)
}
