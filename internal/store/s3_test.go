package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

// fakeS3 is an in-memory bucket shared by every S3Store in a test.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("no such key")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(cloneBytes(v)))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return nil, f.putErr
	}
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func newTestS3Store(t *testing.T, client S3API, prefix string) *S3Store {
	t.Helper()
	s, err := NewS3Store(client, "bucket", prefix, WithS3PollInterval(testPoll), WithS3Timeout(time.Second))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestS3Store_ReadWrite(t *testing.T) {
	fake := newFakeS3()
	s := newTestS3Store(t, fake, "winsync/")

	_, ok, err := s.Read("windows")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Write("windows", []byte(`[]`)))
	require.Contains(t, fake.objects, "winsync/windows")

	v, ok, err := s.Read("windows")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, `[]`, string(v))
}

func TestS3Store_WriteError(t *testing.T) {
	fake := newFakeS3()
	fake.putErr = errors.New("slow down")
	s := newTestS3Store(t, fake, "")

	err := s.Write("windows", []byte(`[]`))
	require.Error(t, err)
	require.ErrorIs(t, err, fake.putErr)
}

func TestS3Store_NotifiesOnlyOtherContexts(t *testing.T) {
	fake := newFakeS3()
	a := newTestS3Store(t, fake, "p/")
	b := newTestS3Store(t, fake, "p/")

	aChanges, cancelA := recordChanges(t, a, "windows")
	defer cancelA()
	bChanges, cancelB := recordChanges(t, b, "windows")
	defer cancelB()

	require.NoError(t, a.Write("windows", []byte(`["a"]`)))

	c := expectChange(t, bChanges, time.Second)
	require.Equal(t, `["a"]`, string(c.value))
	expectNoChange(t, aChanges, 10*testPoll)
}

func TestS3Store_ClearOnlyTouchesPrefix(t *testing.T) {
	fake := newFakeS3()
	s := newTestS3Store(t, fake, "mine/")
	require.NoError(t, s.Write("windows", []byte(`[]`)))
	fake.objects["other/windows"] = []byte(`[]`)

	require.NoError(t, s.Clear())
	require.NotContains(t, fake.objects, "mine/windows")
	require.Contains(t, fake.objects, "other/windows")
}

func TestNewS3Store_Validation(t *testing.T) {
	_, err := NewS3Store(nil, "bucket", "")
	require.Error(t, err)
	_, err = NewS3Store(newFakeS3(), "", "")
	require.Error(t, err)
}
