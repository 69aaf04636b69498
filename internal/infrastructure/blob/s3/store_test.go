package s3

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logbook/logbook-service/internal/core/ports"
)

type fakeAPI struct {
	objects map[string][]byte
	acl     map[string]types.ObjectCannedACL
	calls   []string
	putErr  error
	copyErr error
	headErr error
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{objects: map[string][]byte{}, acl: map[string]types.ObjectCannedACL{}}
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.calls = append(f.calls, "put")
	if f.putErr != nil {
		return nil, f.putErr
	}
	data, _ := io.ReadAll(in.Body)
	f.objects[aws.ToString(in.Key)] = data
	f.acl[aws.ToString(in.Key)] = in.ACL
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) CopyObject(_ context.Context, in *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	f.calls = append(f.calls, "copy")
	if f.copyErr != nil {
		return nil, f.copyErr
	}
	_, escaped, _ := strings.Cut(aws.ToString(in.CopySource), "/")
	if strings.ContainsAny(escaped, " ") {
		return nil, errors.New("copy source is not URL-encoded")
	}
	src, err := url.PathUnescape(escaped)
	if err != nil {
		return nil, err
	}
	data, ok := f.objects[src]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	f.objects[aws.ToString(in.Key)] = data
	f.acl[aws.ToString(in.Key)] = in.ACL
	return &s3.CopyObjectOutput{}, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.calls = append(f.calls, "delete")
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeAPI) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.calls = append(f.calls, "head")
	if _, ok := f.objects[aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeAPI) HeadBucket(_ context.Context, _ *s3.HeadBucketInput, _ ...func(*s3.Options)) (*s3.HeadBucketOutput, error) {
	return &s3.HeadBucketOutput{}, f.headErr
}

func newTestStore(api API) *Store {
	return NewStore(api, Config{Bucket: "logbook", PublicBaseURL: "http://minio:9000/"})
}

func TestStore_PutIsPublic(t *testing.T) {
	api := newFakeAPI()
	store := newTestStore(api)

	att, err := store.Put(context.Background(), ports.BlobObject{Name: "img_bob_1", MimeType: "image/png", Data: []byte("png")})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(att.Ref, "attachments/img_bob_1-"))
	assert.Equal(t, "http://minio:9000/logbook/"+att.Ref, att.URL)
	assert.Equal(t, []byte("png"), api.objects[att.Ref])
	assert.Equal(t, types.ObjectCannedACLPublicRead, api.acl[att.Ref])
}

func TestStore_PutKeysAreUnique(t *testing.T) {
	store := newTestStore(newFakeAPI())

	a, err := store.Put(context.Background(), ports.BlobObject{Name: "img_1", Data: []byte("a")})
	require.NoError(t, err)
	b, err := store.Put(context.Background(), ports.BlobObject{Name: "img_1", Data: []byte("b")})
	require.NoError(t, err)

	assert.NotEqual(t, a.Ref, b.Ref)
}

func TestStore_PutError(t *testing.T) {
	api := newFakeAPI()
	api.putErr = errors.New("denied")

	_, err := newTestStore(api).Put(context.Background(), ports.BlobObject{Data: []byte("x")})
	assert.ErrorContains(t, err, "denied")
}

func TestStore_TrashMovesObject(t *testing.T) {
	api := newFakeAPI()
	store := newTestStore(api)
	att, err := store.Put(context.Background(), ports.BlobObject{Name: "img_1", Data: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, store.Trash(context.Background(), att.Ref))

	_, live := api.objects[att.Ref]
	assert.False(t, live)
	assert.Equal(t, []byte("x"), api.objects["trash/"+att.Ref])
	assert.Equal(t, types.ObjectCannedACLPrivate, api.acl["trash/"+att.Ref])
	assert.Equal(t, []string{"put", "head", "copy", "delete"}, api.calls)
}

func TestStore_TrashUnknownRef(t *testing.T) {
	api := newFakeAPI()

	err := newTestStore(api).Trash(context.Background(), "attachments/missing")
	require.Error(t, err)
	var nf *types.NotFound
	assert.ErrorAs(t, err, &nf)
	assert.NotContains(t, api.calls, "delete")
}

func TestStore_TrashCopyFailureKeepsOriginal(t *testing.T) {
	api := newFakeAPI()
	store := newTestStore(api)
	att, err := store.Put(context.Background(), ports.BlobObject{Data: []byte("x")})
	require.NoError(t, err)
	api.copyErr = errors.New("boom")

	assert.Error(t, store.Trash(context.Background(), att.Ref))
	assert.Contains(t, api.objects, att.Ref)
}

func TestStore_Ping(t *testing.T) {
	api := newFakeAPI()
	store := newTestStore(api)
	assert.NoError(t, store.Ping(context.Background()))

	api.headErr = errors.New("no bucket")
	assert.Error(t, store.Ping(context.Background()))
}

func TestStore_KeysOnlyUseSafeCharacters(t *testing.T) {
	api := newFakeAPI()
	store := newTestStore(api)

	att, err := store.Put(context.Background(), ports.BlobObject{Name: "img_bob smith+ü/x_1", Data: []byte("x")})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(att.Ref, "attachments/img_bob_smith___x_1-"), att.Ref)

	require.NoError(t, store.Trash(context.Background(), att.Ref))
	assert.Equal(t, []byte("x"), api.objects["trash/"+att.Ref])
	assert.NotContains(t, api.objects, att.Ref, "the public copy is gone")
}

func TestStore_TrashEncodesCopySource(t *testing.T) {
	api := newFakeAPI()
	ref := "attachments/legacy key+1"
	api.objects[ref] = []byte("old")

	require.NoError(t, newTestStore(api).Trash(context.Background(), ref))
	assert.Equal(t, []byte("old"), api.objects["trash/"+ref])
	assert.NotContains(t, api.objects, ref)
}

func TestCopySource(t *testing.T) {
	assert.Equal(t, "logbook/attachments/a%20b", copySource("logbook", "attachments/a b"))
	assert.Equal(t, "logbook/attachments/img_1-abc", copySource("logbook", "attachments/img_1-abc"))
}
