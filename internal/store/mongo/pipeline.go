package mongo

import (
	"go.mongodb.org/mongo-driver/v2/bson"
	driver "go.mongodb.org/mongo-driver/v2/mongo"

	"timetracker/internal/core"
	"timetracker/internal/store"
)

func findFilter(f store.Filter) bson.D {
	filter := bson.D{}
	dateCond := bson.D{}
	if f.From != "" {
		dateCond = append(dateCond, bson.E{Key: "$gte", Value: f.From})
	}
	if f.To != "" {
		dateCond = append(dateCond, bson.E{Key: "$lte", Value: f.To})
	}
	if len(dateCond) > 0 {
		filter = append(filter, bson.E{Key: "date", Value: dateCond})
	}
	if f.IncompleteOnly {
		// Documents without the field count as incomplete.
		filter = append(filter, bson.E{Key: "completed", Value: bson.D{{Key: "$ne", Value: true}}})
	}
	return filter
}

func findSort(order store.SortOrder) bson.D {
	dir := -1
	if order == store.DateAsc {
		dir = 1
	}
	return bson.D{{Key: "date", Value: dir}, {Key: "createdAt", Value: dir}}
}

// categoryPipeline sums duration per category. A missing category is
// grouped under the default; blank strings are merged by the caller.
func categoryPipeline() driver.Pipeline {
	return driver.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$category", core.DefaultCategory}}}},
			{Key: "totalDuration", Value: bson.D{{Key: "$sum", Value: "$duration"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "category", Value: "$_id"},
			{Key: "totalDuration", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalDuration", Value: -1}, {Key: "category", Value: 1}}}},
	}
}

// dailyPipeline sums duration per date for dates on or after since.
func dailyPipeline(since string) driver.Pipeline {
	return driver.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "date", Value: bson.D{{Key: "$gte", Value: since}}}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$date"},
			{Key: "totalDuration", Value: bson.D{{Key: "$sum", Value: "$duration"}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "date", Value: "$_id"},
			{Key: "totalDuration", Value: 1},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}}}},
	}
}
