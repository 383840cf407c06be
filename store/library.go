package store

import (
	"context"
	"time"

	"github.com/kevinaaaquil/shelfmates/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// libraryDoc is a LibraryBook as stored, tagged with its owner.
type libraryDoc struct {
	UserID             primitive.ObjectID `bson:"userId"`
	models.LibraryBook `bson:",inline"`
}

// LibraryBooks returns the user's shelf in the order books were added.
func (db *DB) LibraryBooks(ctx context.Context, userID primitive.ObjectID) ([]models.LibraryBook, error) {
	opts := options.Find().SetSort(bson.D{{Key: "addedAt", Value: 1}})
	cur, err := db.LibraryBooksColl().Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var docs []libraryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	books := make([]models.LibraryBook, 0, len(docs))
	for _, d := range docs {
		books = append(books, d.LibraryBook)
	}
	return books, nil
}

// InsertLibraryBook stores a new shelf entry. An existing entry for the same book is
// left untouched.
func (db *DB) InsertLibraryBook(ctx context.Context, userID primitive.ObjectID, book models.LibraryBook) error {
	doc := libraryDoc{UserID: userID, LibraryBook: book}
	_, err := db.LibraryBooksColl().UpdateOne(ctx,
		bson.M{"userId": userID, "bookId": book.ID},
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	return err
}

// UpdateLibraryProgress patches only the current page and last-read time.
func (db *DB) UpdateLibraryProgress(ctx context.Context, userID primitive.ObjectID, bookID string, currentPage int, at time.Time) error {
	_, err := db.LibraryBooksColl().UpdateOne(ctx,
		bson.M{"userId": userID, "bookId": bookID},
		bson.M{"$set": bson.M{"currentPage": currentPage, "lastReadAt": at}},
	)
	return err
}

func (db *DB) DeleteLibraryBook(ctx context.Context, userID primitive.ObjectID, bookID string) error {
	_, err := db.LibraryBooksColl().DeleteMany(ctx, bson.M{"userId": userID, "bookId": bookID})
	return err
}
