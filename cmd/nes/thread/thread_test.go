package thread

import (
    "context"
    "sync/atomic"
    "testing"
)

func TestBasic(test *testing.T){
    quit, cancel := context.WithCancel(context.Background())
    defer cancel()
    group := NewThreadGroup(quit)

    var x int

    group.Spawn(func (){
        for i := 0; i < 10; i++ {
            x += 1
        }
    })

    group.Wait()

    if x != 10 {
        test.Fatalf("expected x to be 10 but was %v", x)
    }
}

func TestCancel(test *testing.T){
    group := NewThreadGroup(context.Background())
    sub := group.SubGroup()

    var stopped atomic.Int32

    /* both threads run until something cancels the group */
    sub.Spawn(func(){
        <-sub.Done()
        stopped.Add(1)
    })
    group.SpawnWithCancel(func(quit context.Context, cancel context.CancelFunc){
        cancel()
        <-quit.Done()
        stopped.Add(1)
    })

    group.Wait()

    if stopped.Load() != 2 {
        test.Fatalf("expected both threads to stop but %v did", stopped.Load())
    }
}
