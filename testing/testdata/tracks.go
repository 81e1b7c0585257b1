package testdata

// Point_Flat_1 is a flat JSON point with seconds timestamp.
var Point_Flat_1 = `{"object_id":"bus-4","lon":-93.2650,"lat":44.9778,"timestamp":1700000000,"speed":8.2,"heading":1.2}`

// Point_Feature_1 is a GeoJSON point feature with an RFC3339 time property.
var Point_Feature_1 = `{
  "id": 0,
  "type": "Feature",
  "geometry": {
    "type": "Point",
    "coordinates": [-93.2554931640625, 44.98896789550781]
  },
  "properties": {
    "Accuracy": 23.13,
    "Activity": "Unknown",
    "Elevation": 328.43,
    "Name": "Rye16",
    "Speed": -1,
    "Time": "2024-12-23T15:31:56.728Z",
    "UUID": "5D37B5EA-6E0B-41FE-8A72-2BB681D661DA",
    "UnixTime": 1734967916
  }
}
`
